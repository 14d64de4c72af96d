package splice

import "strings"

// Markers labels the two halves of a marked replacement block.
type Markers struct {
	Rule      string
	Original  string
	Rewritten string
}

// DefaultMarkers tells a later model pass which half to ignore.
var DefaultMarkers = Markers{
	Rule:      "---------------------------",
	Original:  "(original text, do not use as reference)",
	Rewritten: "(rewritten text, use as reference)",
}

// MarkedBlock renders original and rewritten text as two ruled lines.
func MarkedBlock(original, rewritten string, m Markers) string {
	if m.Rule == "" {
		m.Rule = DefaultMarkers.Rule
	}
	var sb strings.Builder
	sb.WriteString(m.Rule)
	sb.WriteString(original)
	sb.WriteString(m.Original)
	sb.WriteString(m.Rule)
	sb.WriteString("\n")
	sb.WriteString(m.Rule)
	sb.WriteString(rewritten)
	sb.WriteString(m.Rewritten)
	sb.WriteString(m.Rule)
	return sb.String()
}

// ReplaceMarked replaces the cleaned excerpt with a MarkedBlock holding both
// the excerpt and its rewrite.
func ReplaceMarked(fileText, excerpt, rewritten string, m Markers) (string, error) {
	orig := Clean(excerpt)
	if orig == "" {
		return fileText, ErrEmptySegment
	}
	return ReplaceOnce(fileText, orig, MarkedBlock(orig, cleanRewrite(rewritten), m))
}
