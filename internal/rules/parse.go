package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/textnorm"
)

// ParseText parses the two-line block format:
//
//	Облокачивание на стол
//	облокотились; облокачиваются; опирались на стол
//
// A non-blank line is a title and the line right after it holds the keywords,
// separated by ";". Blank lines between blocks are ignored. A title followed by a
// blank line or the end of input gets no keywords. Never fails on content.
// Windows-1251 input is accepted as well as UTF-8.
func ParseText(data []byte) model.RuleSet {
	lines := strings.Split(textnorm.Decode(data), "\n")

	var rs model.RuleSet
	for i := 0; i < len(lines); i++ {
		title := strings.TrimSpace(lines[i])
		if title == "" {
			continue
		}
		var values string
		if i+1 < len(lines) {
			values = lines[i+1]
		}
		rs = append(rs, model.Rule{Title: title, Keywords: splitKeywords(values)})
		i++
	}
	return rs
}

func splitKeywords(line string) []string {
	var out []string
	for _, kw := range strings.Split(line, ";") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// ParseYAML parses a YAML rule list:
//
//	- title: Облокачивание на стол
//	  keywords: [облокотились, облокачиваются]
func ParseYAML(data []byte) (model.RuleSet, error) {
	var rs model.RuleSet
	if err := yaml.Unmarshal([]byte(textnorm.Decode(data)), &rs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
	}

	out := rs[:0]
	for _, r := range rs {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		var kws []string
		for _, kw := range r.Keywords {
			kws = append(kws, splitKeywords(kw)...)
		}
		r.Keywords = kws
		out = append(out, r)
	}
	return out, nil
}

// Format renders a rule set back into the two-line text format
func Format(rs model.RuleSet) string {
	var b strings.Builder
	for i, r := range rs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Title)
		b.WriteString("\n")
		b.WriteString(strings.Join(r.Keywords, "; "))
		b.WriteString("\n")
	}
	return b.String()
}
