package chapter

import "strings"

// IndentMarker is the display indent: two ideographic spaces.
const IndentMarker = "　　"

// Indent prefixes every line of body with IndentMarker for display.
func Indent(body string) string {
	if body == "" {
		return ""
	}
	lines := strings.Split(body, "\n")
	for i, ln := range lines {
		lines[i] = IndentMarker + ln
	}
	return strings.Join(lines, "\n")
}

// Unindent strips one leading IndentMarker from each line and trims line
// terminators from both ends. It is a best-effort inverse of Indent: lines
// without the marker pass through unchanged.
func Unindent(text string) string {
	lines := strings.SplitAfter(text, "\n")
	var sb strings.Builder
	sb.Grow(len(text))
	for _, ln := range lines {
		sb.WriteString(strings.TrimPrefix(ln, IndentMarker))
	}
	return strings.Trim(sb.String(), "\r\n")
}
