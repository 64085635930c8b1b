package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/inspectra/internal/model"
)

// Analyzer analyzes one document
type Analyzer interface {
	Analyze(ctx context.Context, location string) (*model.Report, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface
type AnalyzerFunc func(ctx context.Context, location string) (*model.Report, error)

// Analyze calls f
func (f AnalyzerFunc) Analyze(ctx context.Context, location string) (*model.Report, error) {
	return f(ctx, location)
}

// DocumentJob represents the analysis of one document
type DocumentJob struct {
	Location string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute waits for the host's rate limit, then analyzes the document
func (j *DocumentJob) Execute(ctx context.Context) Result {
	start := time.Now()
	res := &DocumentResult{Location: j.Location}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Location); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}

	res.Report, res.Error = j.Analyzer.Analyze(ctx, j.Location)
	res.Duration = time.Since(start)
	return res
}

// DocumentResult represents the result of a document job
type DocumentResult struct {
	Location string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple documents concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. Remote documents are
// rate limited per host; requestsPerSecond <= 0 disables limiting.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// ProcessLocations analyzes documents concurrently. Results keep the input order;
// documents skipped because ctx was cancelled get ctx's error.
func (b *BatchProcessor) ProcessLocations(ctx context.Context, locations []string) []*DocumentResult {
	if len(locations) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, loc := range locations {
		if !pool.Submit(&DocumentJob{Location: loc, Analyzer: b.analyzer, Limiter: b.limiter}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*DocumentResult, len(locations))
	for i, loc := range locations {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*DocumentResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &DocumentResult{Location: loc, Error: err}
	}
	return out
}

// ProcessFile reads document locations from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*DocumentResult, error) {
	locations, err := ReadLocationsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}

	return b.ProcessLocations(ctx, locations), nil
}

// ReadLocationsFromFile reads document locations from a file (one per line)
func ReadLocationsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadLocations(file)
}

// ReadLocations reads one location per line, skipping blank lines and "#" comments.
// Duplicates keep their first position.
func ReadLocations(r io.Reader) ([]string, error) {
	var locations []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			locations = append(locations, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return locations, nil
}
