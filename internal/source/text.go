package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/textnorm"
)

// TextAdapter reads plain text. Form feeds separate pages.
type TextAdapter struct{}

// NewTextAdapter creates a new plain text adapter
func NewTextAdapter() *TextAdapter {
	return &TextAdapter{}
}

// Name returns the adapter name
func (a *TextAdapter) Name() string {
	return "text"
}

// CanHandle matches text/plain and .txt files
func (a *TextAdapter) CanHandle(location string, contentType string) bool {
	return contentType == "text/plain" || extension(location) == ".txt"
}

// Pages splits the text into pages on form feed and into lines on newline
func (a *TextAdapter) Pages(ctx context.Context, data []byte) ([]model.Page, error) {
	if looksBinary(data) {
		return nil, fmt.Errorf("%w: binary content", ErrUnsupportedFormat)
	}

	text := strings.ReplaceAll(textnorm.Decode(data), "\r\n", "\n")
	var pages []model.Page
	for i, chunk := range strings.Split(text, "\f") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines := strings.Split(chunk, "\n")
		for j := range lines {
			lines[j] = strings.TrimRight(lines[j], "\r")
		}
		pages = append(pages, model.Page{Number: i + 1, Lines: lines})
	}
	return pages, nil
}

// looksBinary reports NUL bytes outside a UTF-16 document
func looksBinary(data []byte) bool {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return false
	}
	head := data
	if len(head) > 8192 {
		head = head[:8192]
	}
	return bytes.IndexByte(head, 0) >= 0
}
