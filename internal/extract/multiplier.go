package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// markerClass lists the multiplication signs used in reports: Latin x/X,
// Cyrillic х/Х, the multiplication sign and the asterisk.
const markerClass = `[xX×*хХ]`

var inlineMultiplier = regexp.MustCompile(markerClass + `\s*(\d+)`)

// MultiplierResult is the outcome of ParseMultipliers
type MultiplierResult struct {
	Text       string // Text with qualifying markers removed (unchanged if Multiplier == 1)
	Multiplier int    // Product of all qualifying markers, 1 if none
}

// ParseMultipliers finds embedded repetition markers such as "x3" or "× 2" and
// returns the product of their values together with the text stripped of them.
// Markers with a value of 0 or 1 are never multipliers and stay in the text.
// A marker glued to the following word ("х3шт") still counts but is not stripped.
func ParseMultipliers(text string) MultiplierResult {
	mul := 1
	var spans [][2]int

	for _, m := range inlineMultiplier.FindAllStringSubmatchIndex(text, -1) {
		if gluedToPrevious(text, m[0]) {
			continue
		}
		value, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			// Too many digits for an int
			value = math.MaxInt
		}
		if value <= 1 {
			continue
		}
		mul = clampMul(mul, value)
		if strippable(text, m[1]) {
			spans = append(spans, [2]int{m[0], m[1]})
		}
	}

	if mul <= 1 {
		return MultiplierResult{Text: text, Multiplier: 1}
	}

	var b strings.Builder
	prev := 0
	for _, sp := range spans {
		b.WriteString(text[prev:sp[0]])
		b.WriteByte(' ')
		prev = sp[1]
	}
	b.WriteString(text[prev:])

	return MultiplierResult{
		Text:       strings.Join(strings.Fields(b.String()), " "),
		Multiplier: mul,
	}
}

// gluedToPrevious reports a letter marker that ends a word: "их 2" is not "х2"
func gluedToPrevious(text string, start int) bool {
	marker, _ := utf8.DecodeRuneInString(text[start:])
	if marker == '*' || marker == '×' || start == 0 {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	return unicode.IsLetter(prev)
}

// strippable reports whether the marker ending at end is followed by a space,
// closing punctuation or the end of text
func strippable(text string, end int) bool {
	if end == len(text) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[end:])
	return unicode.IsSpace(next) || strings.ContainsRune(").,;:-", next)
}

func clampMul(a, b int) int {
	const limit = 1 << 30
	if a > limit/b {
		return limit
	}
	return a * b
}
