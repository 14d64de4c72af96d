package splice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/redraft-cli/internal/chapter"
)

var (
	// ErrNotFound reports that the segment to replace does not occur in the text.
	ErrNotFound = errors.New("segment not found in document")
	// ErrEmptySegment reports an excerpt that is empty after cleaning
	// (for example a selection of indent only).
	ErrEmptySegment = errors.New("segment is empty")
)

// Mode selects how a rewritten passage is written back.
type Mode string

const (
	// ModeOverwrite replaces the passage in the current file.
	ModeOverwrite Mode = "overwrite"
	// ModeVersion writes the result to a new versioned sibling file.
	ModeVersion Mode = "version"
	// ModeMark keeps the original passage next to the rewrite, wrapped in
	// markers, in the current file.
	ModeMark Mode = "mark"
)

// ParseMode validates a mode name. Empty selects ModeVersion.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeVersion, nil
	case ModeOverwrite:
		return ModeOverwrite, nil
	case ModeVersion:
		return ModeVersion, nil
	case ModeMark:
		return ModeMark, nil
	default:
		return "", fmt.Errorf("invalid mode: %s (use overwrite|version|mark)", s)
	}
}

// ReplaceOnce replaces the first literal occurrence of oldSegment in
// fileText with newSegment. Everything else is left byte-for-byte intact.
func ReplaceOnce(fileText, oldSegment, newSegment string) (string, error) {
	if oldSegment == "" {
		return fileText, ErrEmptySegment
	}
	i := strings.Index(fileText, oldSegment)
	if i < 0 {
		return fileText, ErrNotFound
	}
	var sb strings.Builder
	sb.Grow(len(fileText) - len(oldSegment) + len(newSegment))
	sb.WriteString(fileText[:i])
	sb.WriteString(newSegment)
	sb.WriteString(fileText[i+len(oldSegment):])
	return sb.String(), nil
}

// Clean turns display text captured from an indented chapter view back into
// source text suitable for matching.
func Clean(excerpt string) string {
	return chapter.Unindent(excerpt)
}

// Delete removes the first occurrence of the cleaned excerpt.
func Delete(fileText, excerpt string) (string, error) {
	return ReplaceOnce(fileText, Clean(excerpt), "")
}

// Replace swaps the cleaned excerpt for the cleaned rewrite. Trailing line
// terminators are dropped from the rewrite so the surrounding layout is kept.
func Replace(fileText, excerpt, rewritten string) (string, error) {
	return ReplaceOnce(fileText, Clean(excerpt), cleanRewrite(rewritten))
}

func cleanRewrite(s string) string {
	return strings.TrimRight(chapter.Unindent(s), "\r\n")
}
