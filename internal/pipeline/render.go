package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ppiankov/inspectra/internal/model"
)

// ReportTitle heads every rendered report
const ReportTitle = "Отчёт по онлайн-проверкам"

// Renderer turns reports into JSON, Markdown and terminal summaries
type Renderer struct {
	topN    int
	details bool
	noColor bool
	colors  map[string]*color.Color
}

// NewRenderer creates a renderer from output settings
func NewRenderer(cfg model.OutputConfig) *Renderer {
	topN := cfg.TopN
	if topN <= 0 {
		topN = 3
	}
	return &Renderer{
		topN:    topN,
		details: cfg.IncludeDetails,
		noColor: cfg.NoColor,
		colors: map[string]*color.Color{
			"title":    color.New(color.FgWhite, color.Bold),
			"header":   color.New(color.FgCyan, color.Bold),
			"count":    color.New(color.FgYellow, color.Bold),
			"muted":    color.New(color.FgHiBlack),
			"info":     color.New(color.FgBlue),
			"warning":  color.New(color.FgYellow),
			"critical": color.New(color.FgRed, color.Bold),
		},
	}
}

// TopN returns how many categories are listed per key
func (r *Renderer) TopN() int {
	return r.topN
}

// TimesWord returns the Russian word for "times" agreeing with n
func TimesWord(n int) string {
	if n < 0 {
		n = -n
	}
	mod10, mod100 := n%10, n%100
	if mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14) {
		return "раза"
	}
	return "раз"
}

// TopText renders the caption and the leading n summary lines of a classification.
// Items are separated by blank lines; an empty summary renders as a dash.
func TopText(caption string, res model.ClassificationResult, n int) string {
	lines := []string{caption}
	items := res.Top(n)
	if len(items) == 0 {
		lines = append(lines, "—")
	}
	for i, it := range items {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("- %s: %d %s", it.Title, it.Count, TimesWord(it.Count)))
	}
	return strings.Join(lines, "\n")
}

// TopCaption returns the caption of a key's top block, e.g. "ТОП-3 С5:"
func TopCaption(key string, n int) string {
	return fmt.Sprintf("ТОП-%d %s:", n, key)
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, report) })
}

// WriteJSON writes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	})
}

// Markdown renders the report as Markdown
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", ReportTitle)
	if report.Meta.Store != "" {
		fmt.Fprintf(&b, "**%s**\n\n", report.Meta.Store)
	}
	if report.Meta.Period != "" {
		fmt.Fprintf(&b, "%s\n\n", report.Meta.Period)
	}

	for _, kr := range report.Keys {
		top := TopText(TopCaption(kr.Key, r.topN), kr.Classification, r.topN)
		caption, body, _ := strings.Cut(top, "\n")
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", caption, body)

		if r.details && len(kr.Classification.Ungrouped) > 0 {
			fmt.Fprintf(&b, "<details>\n<summary>Без категории (%s)</summary>\n\n", kr.Key)
			for _, it := range kr.Classification.Ungrouped {
				fmt.Fprintf(&b, "- %s: %d %s%s\n", it.Text, it.Count, TimesWord(it.Count), pagesSuffix(it.Pages))
			}
			b.WriteString("\n</details>\n\n")
		}
	}

	if len(report.Signals) > 0 {
		b.WriteString("## Диагностика\n\n")
		for _, s := range report.Signals {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", s.Severity, s.Key, s.Description)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n\n_%s · %s · %s_\n", report.Source, report.ID, report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}

func pagesSuffix(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprint(p)
	}
	return " (стр. " + strings.Join(parts, ", ") + ")"
}

// RenderSummary prints a colored summary. Colors are disabled when configured
// or when w is not a terminal.
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	r.setColor(useColor(w) && !r.noColor)

	fmt.Fprintln(w)
	r.colors["title"].Fprintln(w, ReportTitle)
	if report.Meta.Store != "" || report.Meta.Period != "" {
		r.colors["muted"].Fprintln(w, strings.TrimSpace(report.Meta.Store+" "+report.Meta.Period))
	}
	r.colors["muted"].Fprintf(w, "%s · %s · %d pages\n", report.Source, report.Adapter, report.PageCount)

	for _, kr := range report.Keys {
		fmt.Fprintln(w)
		r.colors["header"].Fprintln(w, TopCaption(kr.Key, r.topN))
		items := kr.Classification.Top(r.topN)
		if len(items) == 0 {
			r.colors["muted"].Fprintln(w, "  —")
			continue
		}
		for _, it := range items {
			fmt.Fprintf(w, "  - %s: ", it.Title)
			r.colors["count"].Fprintf(w, "%d", it.Count)
			fmt.Fprintf(w, " %s\n", TimesWord(it.Count))
		}
	}

	if len(report.Signals) > 0 {
		fmt.Fprintln(w)
		for _, s := range report.Signals {
			c, ok := r.colors[string(s.Severity)]
			if !ok {
				c = r.colors["info"]
			}
			c.Fprintf(w, "%-8s", strings.ToUpper(string(s.Severity)))
			fmt.Fprintf(w, " %s: %s\n", s.Key, s.Description)
		}
	}
	fmt.Fprintln(w)
}

func (r *Renderer) setColor(enabled bool) {
	for _, c := range r.colors {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
