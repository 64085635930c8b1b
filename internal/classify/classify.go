// Package classify assigns extracted segments to rule categories.
//
// Rules are tried in rule-set order and keywords in rule order; the first keyword
// that matches claims the segment, so every segment counts toward at most one
// category. Segments no rule claims are collected under a synthetic "other" category.
package classify

import (
	"sort"
	"strings"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/rules"
	"github.com/ppiankov/inspectra/internal/textnorm"
)

// Classifier groups segments using a compiled rule set
type Classifier struct {
	set        *rules.CompiledSet
	otherTitle string
}

// Option configures a Classifier
type Option func(*Classifier)

// WithOtherTitle sets the title of the category holding unclaimed segments
func WithOtherTitle(title string) Option {
	return func(c *Classifier) {
		if title = strings.TrimSpace(title); title != "" {
			c.otherTitle = title
		}
	}
}

// New creates a classifier over an already compiled rule set
func New(set *rules.CompiledSet, opts ...Option) *Classifier {
	c := &Classifier{set: set, otherTitle: model.DefaultOtherTitle}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify compiles rs and classifies segments in one call
func Classify(segments []model.Segment, rs model.RuleSet, opts ...Option) model.ClassificationResult {
	return New(rules.CompileSet(rs), opts...).Classify(segments)
}

// OtherTitle returns the title used for unclaimed segments
func (c *Classifier) OtherTitle() string {
	return c.otherTitle
}

type indexedSegment struct {
	seg       model.Segment
	canonical string
	claimed   bool
}

// Classify assigns every segment to at most one category and aggregates the rest.
// The sum of all summary counts equals the sum of all segment counts.
func (c *Classifier) Classify(segments []model.Segment) model.ClassificationResult {
	index := make([]indexedSegment, len(segments))
	for i, s := range segments {
		text := s.MatchText
		if text == "" {
			text = s.Text
		}
		index[i] = indexedSegment{seg: s, canonical: textnorm.NormalizeForMatching(text)}
	}

	result := model.ClassificationResult{Details: make(map[string][]model.Segment)}
	totals := make(map[string]int)

	for i := range index {
		title, ok := c.set.FirstMatch(index[i].canonical)
		if !ok {
			continue
		}
		index[i].claimed = true
		totals[title] += index[i].seg.Count
		result.Details[title] = append(result.Details[title], index[i].seg)
	}

	// Categories enter the summary in rule-set order; repeated titles share one category
	var order []string
	listed := make(map[string]bool)
	for _, rule := range c.set.Rules() {
		if totals[rule.Title] > 0 && !listed[rule.Title] {
			order = append(order, rule.Title)
			listed[rule.Title] = true
		}
	}

	result.Ungrouped = aggregateUnclaimed(index)
	if len(result.Ungrouped) > 0 {
		if !listed[c.otherTitle] {
			order = append(order, c.otherTitle)
		}
		totals[c.otherTitle] += result.UngroupedTotal()
		for _, it := range index {
			if !it.claimed {
				result.Details[c.otherTitle] = append(result.Details[c.otherTitle], it.seg)
			}
		}
	}

	for _, title := range order {
		result.Summary = append(result.Summary, model.CategoryCount{Title: title, Count: totals[title]})
	}
	sort.SliceStable(result.Summary, func(i, j int) bool {
		return result.Summary[i].Count > result.Summary[j].Count
	})

	return result
}

// aggregateUnclaimed merges unclaimed segments with the same description,
// keeping first-seen order
func aggregateUnclaimed(index []indexedSegment) []model.UngroupedItem {
	var items []model.UngroupedItem
	pos := make(map[string]int)
	pages := make(map[string]map[int]bool)

	for _, it := range index {
		if it.claimed {
			continue
		}
		key := it.seg.MatchText
		if key == "" {
			key = it.seg.Text
		}
		i, ok := pos[key]
		if !ok {
			i = len(items)
			pos[key] = i
			pages[key] = make(map[int]bool)
			items = append(items, model.UngroupedItem{Text: key})
		}
		items[i].Count += it.seg.Count
		if it.seg.Page > 0 {
			pages[key][it.seg.Page] = true
		}
	}

	for i := range items {
		set := pages[items[i].Text]
		for p := range set {
			items[i].Pages = append(items[i].Pages, p)
		}
		sort.Ints(items[i].Pages)
	}
	return items
}
