// Package source turns inspection documents into ordered pages of text lines.
//
// Documents are read from local paths or http(s) URLs by a Fetcher and handed to
// the first registered Adapter that can handle them. PDF, HTML and plain text are
// supported out of the box.
package source

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/ppiankov/inspectra/internal/model"
)

// ErrUnsupportedFormat is returned when no adapter can read a document
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Adapter defines the interface for format-specific text extractors
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given location/content type
	CanHandle(location string, contentType string) bool

	// Pages extracts the ordered text lines of every page
	Pages(ctx context.Context, data []byte) ([]model.Page, error)
}

// Registry manages document adapters
type Registry struct {
	adapters []Adapter
	fallback Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry(doc model.DocumentConfig) *Registry {
	r := &Registry{fallback: NewTextAdapter()}
	r.Register(NewPDFAdapter(doc.ValidatePDF))
	r.Register(NewHTMLAdapter())
	return r
}

// Register registers a new adapter ahead of the fallback
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Find returns the first adapter that can handle the document, or the plain text fallback
func (r *Registry) Find(location, contentType string) Adapter {
	for _, a := range r.adapters {
		if a.CanHandle(location, contentType) {
			return a
		}
	}
	return r.fallback
}

// Lookup returns the adapter with the given name
func (r *Registry) Lookup(name string) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.Name() == name {
			return a, true
		}
	}
	if r.fallback.Name() == name {
		return r.fallback, true
	}
	return nil, false
}

// Names lists registered adapter names, fallback last
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters)+1)
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return append(names, r.fallback.Name())
}

// Sniff returns the media type of a document: the declared one when present and
// specific, otherwise detected from the first bytes.
func Sniff(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

// extension returns the lower-case extension of a path or URL path
func extension(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

// IsRemote reports whether location is an http(s) URL
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
