package score

import (
	"fmt"

	"github.com/ppiankov/inspectra/internal/model"
)

// uncategorizedWarnShare is the share of all mentions in the other bucket above
// which the rule set is considered to miss common violations
const uncategorizedWarnShare = 0.5

// Input is everything the scorer looks at for one violation key
type Input struct {
	Report      model.KeyReport
	OtherTitle  string
	RulesUsable bool // At least one keyword can match
	RuleCount   int
	LintIssues  int
}

// Scorer derives diagnostic signals from classification results.
// Signals describe a report; they never change its counts.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate generates the diagnostic signals for one key
func (s *Scorer) Calculate(in Input) []model.Signal {
	var signals []model.Signal
	key := in.Report.Key

	// 1. Rule set usability
	if !in.RulesUsable {
		signals = append(signals, model.Signal{
			Key:         key,
			Type:        model.SignalEmptyRuleSet,
			Severity:    model.SeverityWarning,
			Description: "No usable keywords; every mention goes to the other bucket",
			Data:        map[string]interface{}{"rules": in.RuleCount},
		})
	}

	// 2. Lint findings
	if in.LintIssues > 0 {
		signals = append(signals, model.Signal{
			Key:         key,
			Type:        model.SignalRuleLintIssues,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("Rule set has %d lint finding(s)", in.LintIssues),
			Data:        map[string]interface{}{"issues": in.LintIssues},
		})
	}

	total := in.Report.Total
	if total == 0 {
		// 3. Nothing to classify
		return append(signals, model.Signal{
			Key:         key,
			Type:        model.SignalNoMentions,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("Key %s not found in the document", key),
			Data:        map[string]interface{}{"segments": len(in.Report.Segments)},
		})
	}

	// 4. Coverage and uncategorized share
	other := otherCount(in.Report.Classification, in.OtherTitle)
	coverage, coverageSignal := s.calculateCoverage(key, total, other)
	signals = append(signals, coverageSignal)

	if share := 1 - coverage; share > uncategorizedWarnShare {
		signals = append(signals, model.Signal{
			Key:         key,
			Type:        model.SignalUncategorized,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%.0f%% of mentions matched no category", share*100),
			Data: map[string]interface{}{
				"other":     other,
				"total":     total,
				"share":     share,
				"threshold": uncategorizedWarnShare,
				"top_items": topUngrouped(in.Report.Classification, 3),
			},
		})
	}

	return signals
}

// calculateCoverage returns the share of mentions claimed by named categories
func (s *Scorer) calculateCoverage(key string, total, other int) (float64, model.Signal) {
	coverage := float64(total-other) / float64(total)

	severity := model.SeverityInfo
	if coverage < 0.5 {
		severity = model.SeverityCritical
	} else if coverage < 0.8 {
		severity = model.SeverityWarning
	}

	return coverage, model.Signal{
		Key:         key,
		Type:        model.SignalCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Categorized share: %.2f", coverage),
		Data: map[string]interface{}{
			"total":       total,
			"categorized": total - other,
			"coverage":    coverage,
			"formula":     "(total - other) / total",
		},
	}
}

func otherCount(res model.ClassificationResult, otherTitle string) int {
	if otherTitle == "" {
		otherTitle = model.DefaultOtherTitle
	}
	for _, c := range res.Summary {
		if c.Title == otherTitle {
			return c.Count
		}
	}
	return 0
}

// topUngrouped returns the most frequent unclaimed descriptions, most frequent first
func topUngrouped(res model.ClassificationResult, n int) []string {
	items := append([]model.UngroupedItem(nil), res.Ungrouped...)
	// Insertion sort keeps first-seen order among equal counts
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Count > items[j-1].Count; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	var out []string
	for i := 0; i < len(items) && i < n; i++ {
		out = append(out, items[i].Text)
	}
	return out
}

// Worst returns the highest severity among signals
func Worst(signals []model.Signal) model.SignalSeverity {
	worst := model.SeverityInfo
	for _, s := range signals {
		switch s.Severity {
		case model.SeverityCritical:
			return model.SeverityCritical
		case model.SeverityWarning:
			worst = model.SeverityWarning
		}
	}
	return worst
}
