package model

// DefaultOtherTitle names the synthetic category for unclaimed segments
const DefaultOtherTitle = "Прочие нарушения"

// CategoryCount is one line of a classification summary
type CategoryCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// UngroupedItem aggregates unclaimed segments sharing the same cleaned description
type UngroupedItem struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
	Pages []int  `json:"pages,omitempty"` // Sorted, unique
}

// ClassificationResult is the outcome of classifying segments against a rule set.
// Every unit of segment count appears exactly once in Summary.
type ClassificationResult struct {
	Summary   []CategoryCount      `json:"summary"`   // Sorted by count, descending
	Details   map[string][]Segment `json:"details"`   // Title -> claimed segments
	Ungrouped []UngroupedItem      `json:"ungrouped"` // Unclaimed, aggregated by description
}

// Total returns the summed count across all summary categories
func (r ClassificationResult) Total() int {
	total := 0
	for _, c := range r.Summary {
		total += c.Count
	}
	return total
}

// Top returns at most n leading summary entries
func (r ClassificationResult) Top(n int) []CategoryCount {
	if n <= 0 || n >= len(r.Summary) {
		return r.Summary
	}
	return r.Summary[:n]
}

// UngroupedTotal returns the summed count of unclaimed segments
func (r ClassificationResult) UngroupedTotal() int {
	total := 0
	for _, it := range r.Ungrouped {
		total += it.Count
	}
	return total
}
