package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/textnorm"
)

// HTMLAdapter extracts visible text from HTML exports of inspection reports.
// Each block element starts a new line; the document is a single page.
type HTMLAdapter struct{}

// NewHTMLAdapter creates a new HTML adapter
func NewHTMLAdapter() *HTMLAdapter {
	return &HTMLAdapter{}
}

// Name returns the adapter name
func (a *HTMLAdapter) Name() string {
	return "html"
}

// CanHandle matches text/html, XHTML and .html/.htm files
func (a *HTMLAdapter) CanHandle(location string, contentType string) bool {
	switch contentType {
	case "text/html", "application/xhtml+xml":
		return true
	}
	ext := extension(location)
	return ext == ".html" || ext == ".htm"
}

// Pages returns the visible text lines of the document
func (a *HTMLAdapter) Pages(ctx context.Context, data []byte) ([]model.Page, error) {
	doc, err := html.Parse(strings.NewReader(textnorm.Decode(data)))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &lineWriter{}
	w.walk(doc)
	w.flush()

	return []model.Page{{Number: 1, Lines: w.lines}}, nil
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "caption": true,
}

// lineWriter accumulates inline text and breaks lines at block boundaries.
// Runs of whitespace collapse to one space; inline elements do not add spaces.
type lineWriter struct {
	lines []string
	cur   bytes.Buffer
	space bool // whitespace seen since the last written rune
}

func (w *lineWriter) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe", "head", "template":
			return
		case "br":
			w.flush()
			return
		case "td", "th":
			w.space = true
		}
	}

	if n.Type == html.TextNode {
		w.text(n.Data)
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		w.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.flush()
	}
}

func (w *lineWriter) text(s string) {
	for _, r := range s {
		if isHTMLSpace(r) {
			w.space = true
			continue
		}
		if w.space && w.cur.Len() > 0 {
			w.cur.WriteByte(' ')
		}
		w.space = false
		w.cur.WriteRune(r)
	}
}

func (w *lineWriter) flush() {
	w.space = false
	if w.cur.Len() == 0 {
		return
	}
	w.lines = append(w.lines, w.cur.String())
	w.cur.Reset()
}

// isHTMLSpace treats NBSP as ordinary whitespace
func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\u00a0':
		return true
	}
	return false
}
