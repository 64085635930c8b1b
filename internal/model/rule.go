package model

// Rule is one category and its alternative keyword phrases
type Rule struct {
	Title    string   `json:"title" yaml:"title"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// RuleSet is an ordered list of rules. Earlier rules claim segments first.
type RuleSet []Rule

// KeywordCount returns the number of keyword phrases across all rules
func (rs RuleSet) KeywordCount() int {
	n := 0
	for _, r := range rs {
		n += len(r.Keywords)
	}
	return n
}
