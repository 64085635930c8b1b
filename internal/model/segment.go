package model

// Segment is one occurrence of a violation key with its attached description
type Segment struct {
	Text      string `json:"text"`           // Display form, e.g. "С5*3 облокотились на стол"
	MatchText string `json:"match_text"`     // Cleaned description used for rule matching
	Count     int    `json:"count"`          // Repetition count (>= 1)
	Page      int    `json:"page,omitempty"` // Source page number (1-based), 0 if unknown
}

// Page is the ordered text of one source page as supplied by a document adapter
type Page struct {
	Number int      `json:"number"`
	Lines  []string `json:"lines"`
}

// SumCounts returns the total repetition count of the given segments
func SumCounts(segments []Segment) int {
	total := 0
	for _, s := range segments {
		total += s.Count
	}
	return total
}
