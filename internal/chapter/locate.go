package chapter

import "strings"

// Position is a view position: a chapter index and a vertical scroll
// fraction in [0,1].
type Position struct {
	Chapter int     `json:"chapter"`
	Scroll  float64 `json:"scroll"`
}

// Locate finds the first chapter whose body contains needle and returns the
// scroll fraction of the line holding the match. When no chapter contains
// needle the current position is returned unchanged, apart from clamping it
// into range.
func Locate(book *Book, needle string, current Position) Position {
	if needle != "" {
		for i, ch := range book.Chapters() {
			off := strings.Index(ch.Body, needle)
			if off < 0 {
				continue
			}
			return Position{Chapter: i, Scroll: scrollFraction(ch.Body, off)}
		}
	}
	return clamp(current, book.Len())
}

// scrollFraction maps a byte offset in body to lineIndex/lineCount.
func scrollFraction(body string, offset int) float64 {
	lines := strings.Split(body, "\n")
	if body == "" || len(lines) == 0 {
		return 0
	}
	idx := len(lines) - 1
	end := 0
	for i, ln := range lines {
		end += len(ln) + 1
		if end > offset {
			idx = i
			break
		}
	}
	return float64(idx) / float64(len(lines))
}

func clamp(p Position, n int) Position {
	if p.Chapter < 0 || p.Chapter >= n {
		p.Chapter = 0
	}
	if p.Scroll < 0 {
		p.Scroll = 0
	}
	if p.Scroll > 1 {
		p.Scroll = 1
	}
	return p
}
