package utils

import "unicode"

// Rough token estimates used for context-window warnings.
// CJK text runs close to one token per character; everything else is
// approximated at 4 characters per token.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	cjk, other := 0, 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	tokens := cjk + other/4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// CountChars returns the number of characters (runes) in text, the unit
// shown to users when comparing an excerpt with its rewrite.
func CountChars(text string) int {
	n := 0
	for range text {
		n++
	}
	return n
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r) ||
		(r >= 0x3000 && r <= 0x303F) || // CJK punctuation
		(r >= 0xFF00 && r <= 0xFFEF) // full-width forms
}
