package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/textnorm"
)

// IssueCode classifies a rule set problem
type IssueCode string

const (
	IssueNoKeywords       IssueCode = "no_keywords"       // Category can never match
	IssueDuplicateTitle   IssueCode = "duplicate_title"   // Title repeated, counts are merged
	IssueEmptyKeyword     IssueCode = "empty_keyword"     // Keyword has no letters or digits
	IssueDuplicateKeyword IssueCode = "duplicate_keyword" // Same canonical keyword twice in one category
	IssueShadowedKeyword  IssueCode = "shadowed_keyword"  // Earlier category already claims the keyword
	IssueBroadKeyword     IssueCode = "broad_keyword"     // Single very short token
)

// Issue is one finding of the rule linter
type Issue struct {
	Code     IssueCode            `json:"code"`
	Severity model.SignalSeverity `json:"severity"`
	Rule     string               `json:"rule"`
	Keyword  string               `json:"keyword,omitempty"`
	Message  string               `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Rule, i.Message)
}

// Lint reports rule set problems that make categories unreachable or ambiguous.
// Findings never change classification; they explain surprising results.
func Lint(rs model.RuleSet) []Issue {
	var issues []Issue

	titles := make(map[string]int)
	owner := make(map[string]string) // canonical keyword -> first rule title

	for i, r := range rs {
		title := strings.TrimSpace(r.Title)

		if prev, ok := titles[title]; ok {
			issues = append(issues, Issue{
				Code:     IssueDuplicateTitle,
				Severity: model.SeverityInfo,
				Rule:     title,
				Message:  fmt.Sprintf("title repeats rule #%d; counts are merged", prev+1),
			})
		} else {
			titles[title] = i
		}

		if len(r.Keywords) == 0 {
			issues = append(issues, Issue{
				Code:     IssueNoKeywords,
				Severity: model.SeverityWarning,
				Rule:     title,
				Message:  "category has no keywords and never matches",
			})
			continue
		}

		seen := make(map[string]bool)
		for _, kw := range r.Keywords {
			canonical := textnorm.NormalizeForMatching(kw)
			switch {
			case canonical == "":
				issues = append(issues, Issue{
					Code:     IssueEmptyKeyword,
					Severity: model.SeverityWarning,
					Rule:     title,
					Keyword:  kw,
					Message:  fmt.Sprintf("keyword %q has no letters or digits", kw),
				})
				continue
			case seen[canonical]:
				issues = append(issues, Issue{
					Code:     IssueDuplicateKeyword,
					Severity: model.SeverityInfo,
					Rule:     title,
					Keyword:  kw,
					Message:  fmt.Sprintf("keyword %q is listed twice", kw),
				})
				continue
			}
			seen[canonical] = true

			if first, ok := owner[canonical]; ok && first != title {
				issues = append(issues, Issue{
					Code:     IssueShadowedKeyword,
					Severity: model.SeverityWarning,
					Rule:     title,
					Keyword:  kw,
					Message:  fmt.Sprintf("keyword %q is unreachable, %q matches it first", kw, first),
				})
			} else if !ok {
				owner[canonical] = title
			}

			if tokens := textnorm.Tokens(canonical); len(tokens) == 1 && textnorm.IsWord(tokens[0]) && utf8.RuneCountInString(tokens[0]) <= 2 {
				issues = append(issues, Issue{
					Code:     IssueBroadKeyword,
					Severity: model.SeverityInfo,
					Rule:     title,
					Keyword:  kw,
					Message:  fmt.Sprintf("keyword %q is a single short word and may match too much", kw),
				})
			}
		}
	}

	return issues
}

// CountBySeverity tallies issues per severity
func CountBySeverity(issues []Issue) map[model.SignalSeverity]int {
	counts := make(map[model.SignalSeverity]int)
	for _, i := range issues {
		counts[i.Severity]++
	}
	return counts
}
