// Package textnorm canonicalizes inspection-report text before extraction and matching.
//
// Reports mix Latin and Cyrillic letters that render identically ("C5" typed with a
// Latin C next to "С5" with a Cyrillic one). Normalize folds the Latin lookalikes
// into Cyrillic so a violation key matches regardless of keyboard layout.
// NormalizeForMatching additionally folds case, "ё" and punctuation for rule matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const nbsp = '\u00a0'

// latinToCyrillic maps Latin letters to their visually identical Cyrillic counterparts
var latinToCyrillic = map[rune]rune{
	'A': 'А', 'a': 'а',
	'B': 'В', 'b': 'в',
	'C': 'С', 'c': 'с',
	'E': 'Е', 'e': 'е',
	'H': 'Н', 'h': 'н',
	'K': 'К', 'k': 'к',
	'M': 'М', 'm': 'м',
	'O': 'О', 'o': 'о',
	'P': 'Р', 'p': 'р',
	'T': 'Т', 't': 'т',
	'X': 'Х', 'x': 'х',
	'Y': 'У', 'y': 'у',
}

// Normalize replaces non-breaking spaces with spaces and folds Latin lookalike
// letters into Cyrillic. Case and punctuation are preserved.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r == nbsp {
			return ' '
		}
		if c, ok := latinToCyrillic[r]; ok {
			return c
		}
		return r
	}, text)
}

// NormalizeForMatching returns the canonical form used by the rule matcher:
// lowercase Cyrillic-folded letters and digits separated by single spaces.
func NormalizeForMatching(text string) string {
	if text == "" {
		return ""
	}

	composed := norm.NFC.String(Normalize(text))
	lowered := strings.ToLower(composed)

	var b strings.Builder
	b.Grow(len(lowered))
	pendingSpace := false
	for _, r := range lowered {
		// lowercasing can produce Latin lookalikes (e.g. KELVIN SIGN -> k)
		if c, ok := latinToCyrillic[r]; ok {
			r = c
		}
		if r == 'ё' {
			r = 'е'
		}
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokens splits canonical text into its space-separated tokens
func Tokens(canonical string) []string {
	return strings.Fields(canonical)
}

// HasLetterOrDigit reports whether s contains at least one letter or digit
func HasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// IsNumeric reports whether s is a non-empty run of digits
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// IsWord reports whether s is a non-empty run of letters
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
