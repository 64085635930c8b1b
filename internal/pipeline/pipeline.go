package pipeline

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ppiankov/inspectra/internal/cache"
	"github.com/ppiankov/inspectra/internal/classify"
	"github.com/ppiankov/inspectra/internal/extract"
	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/rules"
	"github.com/ppiankov/inspectra/internal/score"
	"github.com/ppiankov/inspectra/internal/source"
	"github.com/ppiankov/inspectra/internal/validate"
)

// KeyRules is the loaded, linted and compiled rule set of one violation key
type KeyRules struct {
	Key      string
	Location string
	Rules    model.RuleSet
	Issues   []validate.Issue
	Set      *rules.CompiledSet
}

// Pipeline orchestrates document loading, extraction and classification
type Pipeline struct {
	fetcher   *source.Fetcher
	loader    *source.Loader
	validator *validate.Validator
	extractor *extract.Extractor
	scorer    *score.Scorer
	renderer  *Renderer
	config    *model.Config
	logger    *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewPipeline creates a new pipeline with the given configuration.
// A nil logger discards all log output.
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fetcher := source.NewFetcher(cfg.HTTP)
	store := cache.NewPageStore(cache.New(cfg.Cache), cfg.Cache.DiskTTL)

	return &Pipeline{
		fetcher:   fetcher,
		loader:    source.NewLoader(fetcher, source.NewRegistry(cfg.Document), store, cfg.Document, logger),
		validator: validate.NewValidator(fetcher, cfg.Concurrency.Workers),
		extractor: extract.NewExtractor(logger),
		scorer:    score.NewScorer(),
		renderer:  NewRenderer(cfg.Output),
		config:    cfg,
		logger:    logger,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Renderer returns the renderer configured for this pipeline
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// LoadRules reads, lints and compiles the rule set of every configured key.
// A key whose rule location cannot be read fails the whole call.
func (p *Pipeline) LoadRules(ctx context.Context) ([]KeyRules, error) {
	results := p.validator.Validate(ctx, p.config.Keys)

	out := make([]KeyRules, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("load rules for %s: %w", res.Key, res.Err)
		}
		for _, issue := range res.Issues {
			p.logger.Warn("rule lint issue", "key", res.Key, "code", issue.Code, "rule", issue.Rule, "keyword", issue.Keyword, "message", issue.Message)
		}
		p.logger.Debug("rules loaded", "key", res.Key, "location", res.Location, "rules", len(res.Rules), "keywords", res.Rules.KeywordCount())

		out = append(out, KeyRules{
			Key:      res.Key,
			Location: res.Location,
			Rules:    res.Rules,
			Issues:   res.Issues,
			Set:      rules.CompileSet(res.Rules),
		})
	}
	return out, nil
}

// Analyze loads rules and analyzes a single document
func (p *Pipeline) Analyze(ctx context.Context, location string, meta model.Meta) (*model.Report, error) {
	keyRules, err := p.LoadRules(ctx)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeWith(ctx, location, meta, keyRules)
}

// AnalyzeWith analyzes a single document against already loaded rules.
// Compiled rule sets are read-only, so keyRules may be shared between calls.
func (p *Pipeline) AnalyzeWith(ctx context.Context, location string, meta model.Meta, keyRules []KeyRules) (*model.Report, error) {
	// 1. Load document pages
	loaded, err := p.loader.Load(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	p.logger.Debug("document loaded", "location", loaded.Location, "adapter", loaded.Adapter,
		"total_pages", loaded.TotalPages, "analyzed_pages", len(loaded.Pages), "cached", loaded.Cached)

	report := &model.Report{
		ID:          p.newID(),
		Source:      loaded.Location,
		Adapter:     loaded.Adapter,
		GeneratedAt: time.Now().UTC(),
		PageCount:   len(loaded.Pages),
		Meta:        cleanMeta(meta),
	}

	// 2. Extract and classify per key
	for _, kr := range keyRules {
		segments := p.extractor.ExtractPages(loaded.Pages, kr.Key)

		classifier := classify.New(kr.Set, classify.WithOtherTitle(p.config.Output.OtherTitle))
		kreport := model.KeyReport{
			Key:            kr.Key,
			Segments:       segments,
			Total:          model.SumCounts(segments),
			Classification: classifier.Classify(segments),
		}
		if !p.config.Output.IncludeDetails {
			kreport.Segments = nil
			kreport.Classification.Details = nil
		}

		// 3. Diagnostics (never change counts)
		report.Signals = append(report.Signals, p.scorer.Calculate(score.Input{
			Report:      kreport,
			OtherTitle:  classifier.OtherTitle(),
			RulesUsable: kr.Set.Usable(),
			RuleCount:   len(kr.Rules),
			LintIssues:  len(kr.Issues),
		})...)

		p.logger.Debug("key analyzed", "key", kr.Key, "segments", len(segments), "total", kreport.Total,
			"categories", len(kreport.Classification.Summary))
		report.Keys = append(report.Keys, kreport)
	}

	return report, nil
}

func (p *Pipeline) newID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Now(), p.entropy).String()
}

func cleanMeta(meta model.Meta) model.Meta {
	return model.Meta{
		Store:  strings.TrimSpace(meta.Store),
		Period: strings.TrimSpace(meta.Period),
	}
}

// RenderReport renders the report to the requested outputs and prints the summary
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("wrote JSON", "path", jsonPath)
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("wrote Markdown", "path", mdPath)
	}

	return nil
}
