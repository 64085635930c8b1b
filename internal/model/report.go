package model

import "time"

// Report represents the complete analysis of one inspection document
type Report struct {
	ID          string    `json:"id"`           // ULID assigned per run
	Source      string    `json:"source"`       // Path or URL that was analyzed
	Adapter     string    `json:"adapter"`      // Document adapter used (pdf, html, text)
	GeneratedAt time.Time `json:"generated_at"` // When the analysis ran
	PageCount   int       `json:"page_count"`   // Pages analyzed (after cover-page policy)
	Meta        Meta      `json:"meta"`         // Store and period labels

	Keys    []KeyReport `json:"keys"`    // One entry per violation key
	Signals []Signal    `json:"signals"` // Diagnostic signals, never affect counts
}

// Meta carries the labels printed on the rendered report
type Meta struct {
	Store  string `json:"store,omitempty"`
	Period string `json:"period,omitempty"`
}

// KeyReport holds extraction and classification results for one violation key
type KeyReport struct {
	Key            string               `json:"key"`
	Segments       []Segment            `json:"segments"`
	Total          int                  `json:"total"` // Sum of segment counts
	Classification ClassificationResult `json:"classification"`
}

// Signal represents a diagnostic signal with transparent data
type Signal struct {
	Key         string                 `json:"key,omitempty"`  // Violation key the signal refers to
	Type        SignalType             `json:"type"`           // Signal classification
	Severity    SignalSeverity         `json:"severity"`       // info, warning, critical
	Description string                 `json:"description"`    // Human-readable description
	Data        map[string]interface{} `json:"data,omitempty"` // Inputs behind the signal
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCoverage       SignalType = "coverage"        // Share of count claimed by named categories
	SignalUncategorized  SignalType = "uncategorized"   // Large "other" bucket
	SignalNoMentions     SignalType = "no_mentions"     // Key never found in the document
	SignalEmptyRuleSet   SignalType = "empty_rule_set"  // No usable keywords for the key
	SignalRuleLintIssues SignalType = "rule_lint_issues" // Rule set has lint findings
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Key returns the report for the given violation key, or nil
func (r *Report) Key(key string) *KeyReport {
	for i := range r.Keys {
		if r.Keys[i].Key == key {
			return &r.Keys[i]
		}
	}
	return nil
}
