package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/textnorm"
)

// minBracketRefs marks a line as a reference listing ("[1] [2] [3]") rather than a finding
const minBracketRefs = 3

var bracketRef = regexp.MustCompile(`\[\s*\d+\s*\]`)

// Extractor turns report lines into key segments
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new segment extractor. A nil logger disables debug output.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract is a convenience wrapper around a silent Extractor
func Extract(lines []string, key string) []model.Segment {
	return NewExtractor(nil).Extract(lines, key)
}

// ExtractPages runs extraction page by page and stamps each segment with its page number.
// Pending occurrences never carry over a page break.
func (e *Extractor) ExtractPages(pages []model.Page, key string) []model.Segment {
	var out []model.Segment
	for _, p := range pages {
		segs := e.Extract(p.Lines, key)
		for i := range segs {
			segs[i].Page = p.Number
		}
		out = append(out, segs...)
	}
	return out
}

// Extract scans lines in order and returns every occurrence of key with its description.
// An occurrence without a description on its own line takes it from the next line
// that supplies text.
func (e *Extractor) Extract(lines []string, key string) []model.Segment {
	pattern := keyPattern(key)
	if pattern == nil {
		return nil
	}
	key = textnorm.Normalize(strings.TrimSpace(key))

	var (
		segments []model.Segment
		state    carryState
	)

	for n, raw := range lines {
		if len(bracketRef.FindAllStringIndex(raw, -1)) >= minBracketRefs {
			e.debug("skip reference line", "line", n)
			continue
		}

		line := textnorm.Normalize(bracketRef.ReplaceAllString(raw, ""))
		tokens := findTokens(pattern, line)

		if len(tokens) == 0 {
			if desc := strings.TrimSpace(line); state.pending() && desc != "" {
				segments = append(segments, state.complete(key, desc)...)
				e.debug("pending completed by next line", "line", n, "description", desc)
				state = carryState{}
			}
			continue
		}

		if state.pending() {
			if prefix := strings.TrimSpace(line[:tokens[0].start]); prefix != "" {
				segments = append(segments, state.complete(key, prefix)...)
				e.debug("pending completed by line prefix", "line", n, "description", prefix)
				state = carryState{}
			}
		}

		for i, tok := range tokens {
			end := len(line)
			if i+1 < len(tokens) {
				end = tokens[i+1].start
			}
			parsed := ParseMultipliers(strings.TrimSpace(line[tok.end:end]))
			count := clampMul(tok.count, parsed.Multiplier)

			if !textnorm.HasLetterOrDigit(parsed.Text) {
				state.counts = append(state.counts, count)
				e.debug("occurrence pending", "line", n, "count", count)
				continue
			}

			seg := newSegment(key, parsed.Text, count)
			e.debug("segment", "line", n, "count", seg.Count, "description", seg.MatchText)
			segments = append(segments, seg)
		}
	}

	if state.pending() {
		e.debug("pending occurrences dropped at end of input", "count", len(state.counts))
	}

	return segments
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

// carryState holds key occurrences still waiting for a description.
// The zero value is idle.
type carryState struct {
	counts []int
}

func (s carryState) pending() bool { return len(s.counts) > 0 }

// complete resolves every pending occurrence with the same description
func (s carryState) complete(key, desc string) []model.Segment {
	out := make([]model.Segment, 0, len(s.counts))
	for _, c := range s.counts {
		out = append(out, newSegment(key, desc, c))
	}
	return out
}

type token struct {
	start int // Start of the key
	end   int // End of the key and its optional multiplier suffix
	count int
}

// keyPattern matches key as a whole token, case-insensitively, with an optional
// multiplier suffix such as "х3" or "* 2".
func keyPattern(key string) *regexp.Regexp {
	key = textnorm.Normalize(strings.TrimSpace(key))
	if key == "" {
		return nil
	}
	return regexp.MustCompile(`(?:^|\s)((?i:` + regexp.QuoteMeta(key) + `))(?:\s*` + markerClass + `\s*(\d+))?`)
}

func findTokens(pattern *regexp.Regexp, line string) []token {
	var tokens []token
	for _, m := range pattern.FindAllStringSubmatchIndex(line, -1) {
		keyStart, keyEnd := m[2], m[3]

		// "С5" must not match inside "С50"
		if lastIsDigit(line[keyStart:keyEnd]) && keyEnd < len(line) {
			next, _ := utf8.DecodeRuneInString(line[keyEnd:])
			if unicode.IsDigit(next) {
				continue
			}
		}

		count := 1
		if m[4] >= 0 {
			if v, err := strconv.Atoi(line[m[4]:m[5]]); err == nil && v > 1 {
				count = v
			}
		}
		tokens = append(tokens, token{start: keyStart, end: m[1], count: count})
	}
	return tokens
}

func lastIsDigit(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsDigit(r)
}

func newSegment(key, desc string, count int) model.Segment {
	if count < 1 {
		panic("extract: segment count must be positive")
	}
	text := key
	if count > 1 {
		text += "*" + strconv.Itoa(count)
	}
	text = strings.TrimSpace(text + " " + desc)
	return model.Segment{Text: text, MatchText: desc, Count: count}
}
