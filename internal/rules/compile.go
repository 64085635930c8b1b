package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kljensen/snowball"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/textnorm"
)

const (
	// minPrefixLen is the shortest word that matches by prefix instead of exactly
	minPrefixLen = 4

	// filler allows up to three unrelated words between keyword tokens, preferring fewer
	filler = `(?:\p{L}+ ){0,3}?`
)

// Matcher tests canonical text against one keyword
type Matcher struct {
	keyword string
	re      *regexp.Regexp // nil = never matches
}

// Compile builds a matcher for a keyword phrase. Words of four or more letters
// match any word sharing their stem, consecutive words may be separated by up to
// three filler words, and the whole phrase must sit on word boundaries.
// A keyword without letters or digits yields a matcher that never matches.
func Compile(keyword string) *Matcher {
	m := &Matcher{keyword: keyword}

	tokens := textnorm.Tokens(textnorm.NormalizeForMatching(keyword))
	if len(tokens) == 0 {
		return m
	}

	var b strings.Builder
	b.WriteString(`(?:^| )`)
	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(` ` + filler)
		}
		b.WriteString(tokenPattern(tok))
	}
	b.WriteString(`(?: |$)`)

	m.re = regexp.MustCompile(b.String())
	return m
}

// Match reports whether canonical (output of textnorm.NormalizeForMatching) contains the keyword
func (m *Matcher) Match(canonical string) bool {
	if m.re == nil {
		return false
	}
	return m.re.MatchString(canonical)
}

// Keyword returns the keyword as written in the rule set
func (m *Matcher) Keyword() string {
	return m.keyword
}

// Empty reports whether the matcher can never match
func (m *Matcher) Empty() bool {
	return m.re == nil
}

func tokenPattern(tok string) string {
	if !textnorm.IsWord(tok) || utf8.RuneCountInString(tok) < minPrefixLen {
		return regexp.QuoteMeta(tok)
	}
	return regexp.QuoteMeta(StemPrefix(tok)) + `\p{L}*`
}

// StemPrefix returns the prefix a long word is matched by: its Russian stem when the
// stem is a real prefix of at least four letters, the word itself otherwise.
// Short stems would make "руки" match "рукав".
func StemPrefix(word string) string {
	stem, err := snowball.Stem(word, "russian", false)
	if err != nil || !strings.HasPrefix(word, stem) || utf8.RuneCountInString(stem) < minPrefixLen {
		return word
	}
	return stem
}

// CompiledRule is a rule with its keyword matchers, in rule-set order
type CompiledRule struct {
	Title    string
	Matchers []*Matcher
}

// CompiledSet is an immutable, compiled rule set. Safe for concurrent use.
type CompiledSet struct {
	rules []CompiledRule
}

// CompileSet compiles every keyword of every rule once
func CompileSet(rs model.RuleSet) *CompiledSet {
	cs := &CompiledSet{rules: make([]CompiledRule, 0, len(rs))}
	for _, r := range rs {
		cr := CompiledRule{Title: strings.TrimSpace(r.Title)}
		for _, kw := range r.Keywords {
			cr.Matchers = append(cr.Matchers, Compile(kw))
		}
		cs.rules = append(cs.rules, cr)
	}
	return cs
}

// Rules returns the compiled rules in priority order
func (cs *CompiledSet) Rules() []CompiledRule {
	if cs == nil {
		return nil
	}
	return cs.rules
}

// Usable reports whether at least one matcher can ever match
func (cs *CompiledSet) Usable() bool {
	for _, r := range cs.Rules() {
		for _, m := range r.Matchers {
			if !m.Empty() {
				return true
			}
		}
	}
	return false
}

// FirstMatch returns the title of the first rule with a keyword matching canonical
func (cs *CompiledSet) FirstMatch(canonical string) (string, bool) {
	for _, r := range cs.Rules() {
		for _, m := range r.Matchers {
			if m.Match(canonical) {
				return r.Title, true
			}
		}
	}
	return "", false
}
