package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/inspectra/internal/cache"
	"github.com/ppiankov/inspectra/internal/model"
)

// Loaded is a document reduced to the pages that should be analyzed
type Loaded struct {
	Location   string
	Adapter    string
	TotalPages int          // Pages in the document
	Pages      []model.Page // Pages left after the cover-page and page-limit policy
	Cached     bool
}

// Loader fetches documents, extracts their pages and applies the page policy
type Loader struct {
	fetcher  *Fetcher
	registry *Registry
	pages    *cache.PageStore
	doc      model.DocumentConfig
	logger   *slog.Logger
}

// NewLoader creates a loader. A nil store disables page caching.
func NewLoader(fetcher *Fetcher, registry *Registry, store *cache.PageStore, doc model.DocumentConfig, logger *slog.Logger) *Loader {
	if store == nil {
		store = cache.NewPageStore(nil, 0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{fetcher: fetcher, registry: registry, pages: store, doc: doc, logger: logger}
}

// Load reads location and returns its analyzable pages
func (l *Loader) Load(ctx context.Context, location string) (*Loaded, error) {
	raw, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return l.Extract(ctx, raw)
}

// Extract turns already fetched content into analyzable pages
func (l *Loader) Extract(ctx context.Context, raw *Document) (*Loaded, error) {
	contentType := Sniff(raw.ContentType, raw.Data)
	adapter := l.registry.Find(raw.Location, contentType)
	l.logger.Debug("adapter selected", "location", raw.Location, "adapter", adapter.Name(), "content_type", contentType)

	out := &Loaded{Location: raw.Location, Adapter: adapter.Name()}

	key := cache.PageKey(raw.Data, adapter.Name())
	pages, hit := l.pages.Get(key)
	if hit {
		l.logger.Debug("page cache hit", "location", raw.Location)
	} else {
		var err error
		pages, err = adapter.Pages(ctx, raw.Data)
		if err != nil {
			return nil, fmt.Errorf("extract %s with %s adapter: %w", raw.Location, adapter.Name(), err)
		}
		if err := l.pages.Put(key, pages); err != nil {
			l.logger.Warn("failed to cache pages", "location", raw.Location, "error", err)
		}
	}

	out.Cached = hit
	out.TotalPages = len(pages)
	out.Pages = l.applyPolicy(adapter.Name(), pages)
	return out, nil
}

// applyPolicy drops the PDF cover page when configured and caps the page count
func (l *Loader) applyPolicy(adapter string, pages []model.Page) []model.Page {
	if l.doc.SkipFirstPage && adapter == "pdf" && len(pages) > 0 {
		pages = pages[1:]
	}
	if l.doc.MaxPages > 0 && len(pages) > l.doc.MaxPages {
		pages = pages[:l.doc.MaxPages]
	}
	return pages
}
