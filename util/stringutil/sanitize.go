package stringutil

import (
	"regexp"
	"strings"
)

// URL-shaped tokens: scheme prefixed or "www." prefixed, up to the next whitespace.
// RE2 \S only excludes ASCII spaces, so Unicode whitespace (U+3000, NBSP, \v,
// U+0085, U+001C-U+001F) is excluded explicitly.
const urlToken = `[^\s\p{Z}\v\x{85}\x{1c}-\x{1f}]+`

var urlRegex = regexp.MustCompile(`https?://` + urlToken + `|ftp://` + urlToken + `|www\.` + urlToken)

// Sanitize neutralizes untrusted text extracted from image files:
//  1. URL-shaped substrings are removed;
//  2. the text is cut to at most maxLength characters (runes);
//  3. every rune not in the allow-set is dropped. The allow-set is ASCII letters & digits,
//     space, \n, \r, and the punctuation ( ) _ - < > : , { } ' " \ [ ] . |
//
// Dropping runes may glue fragments back into a URL ("ht\ttp://"), so URL removal
// is repeated until none is left.
// The output never exceeds maxLength runes and Sanitize(Sanitize(s, n), n) == Sanitize(s, n).
func Sanitize(text string, maxLength int) string {
	if text == "" || maxLength <= 0 {
		return ""
	}
	text = urlRegex.ReplaceAllString(text, "")
	text = truncateRunes(text, maxLength)
	text = strings.Map(func(r rune) rune {
		if isAllowedRune(r) {
			return r
		}
		return -1
	}, text)
	for urlRegex.MatchString(text) {
		text = urlRegex.ReplaceAllString(text, "")
	}
	return text
}

// SanitizeValue is Sanitize for loosely typed values. Anything but a string yields "".
func SanitizeValue(v any, maxLength int) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Sanitize(s, maxLength)
}

func isAllowedRune(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	}
	switch r {
	case '(', ')', '_', '-', '<', '>', ':', ',', '{', '}', '\'', '"',
		' ', '\n', '\r', '\\', '[', ']', '.', '|':
		return true
	}
	return false
}

// Return the first max runes of str.
func truncateRunes(str string, max int) string {
	if len(str) <= max {
		return str
	}
	i := 0
	for pos := range str {
		if i == max {
			return str[:pos]
		}
		i++
	}
	return str
}
