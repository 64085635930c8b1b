package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	outDir         string
	store          string
	period         string
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <document>",
	Short: "Analyze one inspection report and print the top violations per key",
	Long: `Analyze reads a single inspection report (local path or http(s) URL) and:
- Extracts every mention of each configured violation key with its description
- Applies inline multipliers such as "х3" or "3 раза"
- Groups mentions into rule categories (first matching rule wins)
- Prints the top categories per key and optional diagnostics

Example:
  inspectra analyze report.pdf
  inspectra analyze report.pdf --store "Пиццерия 12" --period "Сентябрь 2026" --out-dir ./reports
  inspectra analyze https://example.com/report.pdf --json report.json --md report.md
  inspectra analyze report.txt --rules С5=rules_c5.yaml --top 5`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindCommonFlags,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	analyzeCmd.Flags().StringVar(&outDir, "out-dir", "", "write JSON and Markdown named <store>_<period>_Отчёт into this directory")

	// Report labels
	analyzeCmd.Flags().StringVar(&store, "store", "", "store label printed on the report")
	analyzeCmd.Flags().StringVar(&period, "period", "", "period label printed on the report")

	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall analysis timeout")
	addCommonFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	location := args[0]

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", location)
		fmt.Fprintf(os.Stderr, "Keys: %v\n", cfg.KeyNames())
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, logger)
	meta := model.Meta{Store: store, Period: period}

	report, err := p.Analyze(ctx, location, meta)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	jsonPath, mdPath := outJSON, outMD
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if jsonPath == "" {
			jsonPath = filepath.Join(outDir, pipeline.ReportFileName(report.Meta, "json"))
		}
		if mdPath == "" {
			mdPath = filepath.Join(outDir, pipeline.ReportFileName(report.Meta, "md"))
		}
	}

	if err := p.RenderReport(report, jsonPath, mdPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	for _, path := range []string{jsonPath, mdPath} {
		if path != "" {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
		}
	}

	p.Renderer().RenderSummary(os.Stdout, report)
	return nil
}
