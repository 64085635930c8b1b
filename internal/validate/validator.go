package validate

import (
	"context"
	"errors"
	"sync"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/rules"
)

// Result is the loaded and linted rule set of one violation key
type Result struct {
	Key      string        `json:"key"`
	Location string        `json:"location"`
	Rules    model.RuleSet `json:"rules,omitempty"`
	Issues   []Issue       `json:"issues,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// Validator loads the rule sets of all configured keys concurrently and lints them
type Validator struct {
	reader     rules.Reader
	maxWorkers int
}

// NewValidator creates a new validator
func NewValidator(reader rules.Reader, maxWorkers int) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Validator{reader: reader, maxWorkers: maxWorkers}
}

// Validate loads every key's rule set. Results keep the order of keys.
// A key with no rule location gets an empty rule set, not an error.
func (v *Validator) Validate(ctx context.Context, keys []model.KeyConfig) []Result {
	results := make([]Result, len(keys))
	var wg sync.WaitGroup

	// Create semaphore to limit concurrent reads
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, kc := range keys {
		wg.Add(1)
		go func(idx int, kc model.KeyConfig) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = failed(kc, ctx.Err())
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.validateSingle(ctx, kc)
		}(i, kc)
	}

	wg.Wait()
	return results
}

func (v *Validator) validateSingle(ctx context.Context, kc model.KeyConfig) Result {
	res := Result{Key: kc.Key, Location: kc.Rules}

	rs, err := rules.Load(ctx, v.reader, kc.Rules)
	switch {
	case errors.Is(err, rules.ErrEmptyLocation):
		return res
	case err != nil:
		return failed(kc, err)
	}

	res.Rules = rs
	res.Issues = Lint(rs)
	return res
}

func failed(kc model.KeyConfig, err error) Result {
	return Result{Key: kc.Key, Location: kc.Rules, Err: err, Error: err.Error()}
}
