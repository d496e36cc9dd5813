package parse

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps sanitized messages, in runes.
const MaxLength = 100

// Sanitize normalises a raw chat line: trim, lowercase, fold diacritics,
// drop everything but word characters, whitespace and colons, then cap the
// length. It never fails; unusable input yields "".
func Sanitize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if !isWord(r) && !unicode.IsSpace(r) && r != ':' {
			continue
		}
		if n == MaxLength {
			break
		}
		if r > unicode.MaxASCII && unicode.IsSpace(r) {
			r = ' '
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

func isWord(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
