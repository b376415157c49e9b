package domain

import (
	"strings"
	"unicode"
)

// Tokens lowercases s and splits it into letter/digit runs.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizePhrase lowercases, trims, collapses inner whitespace and strips
// surrounding punctuation such as "¿", "?", "¡" and "!".
func NormalizePhrase(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
