package rewrite

import (
	"strings"

	"github.com/KaramelBytes/redraft-cli/internal/utils"
)

// BuildPrompt assembles the rewrite prompt: the whole chapter as reference,
// the modification direction, then the passage to rewrite. It returns the
// prompt with its token estimate.
func BuildPrompt(chapterText, direction, excerpt string) (string, int) {
	var sb strings.Builder
	sb.WriteString("[CHAPTER FOR REFERENCE ONLY]\n\n")
	sb.WriteString(chapterText)
	sb.WriteString("\n\n")
	sb.WriteString("Rewrite or polish the passage I selected below.\n\n")
	sb.WriteString("[DIRECTION] ")
	sb.WriteString(strings.TrimSpace(direction))
	sb.WriteString("\n\n")
	sb.WriteString("[PASSAGE TO REWRITE]\n")
	sb.WriteString(excerpt)
	sb.WriteString("\n")

	prompt := sb.String()
	return prompt, utils.CountTokens(prompt)
}
