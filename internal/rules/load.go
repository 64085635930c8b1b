package rules

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ppiankov/inspectra/internal/model"
)

// ErrEmptyLocation is returned when a key has no rule source configured
var ErrEmptyLocation = errors.New("rule location is empty")

// Reader fetches raw bytes from a file path or URL
type Reader interface {
	Read(ctx context.Context, location string) ([]byte, error)
}

// Load reads a rule set and parses it according to its extension:
// .yaml/.yml as YAML, anything else as the two-line text format.
func Load(ctx context.Context, r Reader, location string) (model.RuleSet, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}

	data, err := r.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules %s: %w", location, err)
	}

	if IsYAML(location) {
		return ParseYAML(data)
	}
	return ParseText(data), nil
}

// IsYAML reports whether location names a YAML rule file
func IsYAML(location string) bool {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
