package cli

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/pipeline"
	"github.com/ppiankov/inspectra/internal/score"
	"github.com/ppiankov/inspectra/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchPeriod  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple inspection reports listed in a file",
	Long: `Batch analyzes many reports concurrently:
- Reads document locations from the input file (one per line, "#" comments)
- Loads every rule set once and shares it between documents
- Rate limits remote documents per host
- Writes one JSON and one Markdown report per document

Example:
  inspectra batch documents.txt
  inspectra batch documents.txt --concurrency 8 --output-dir ./reports --period "Сентябрь 2026"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindCommonFlags,
	RunE:    runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./inspectra-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchPeriod, "period", "", "period label printed on every report")
	addCommonFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Inspectra Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Keys:         %s\n", strings.Join(cfg.KeyNames(), ", "))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.NewPipeline(cfg, logger)

	keyRules, err := p.LoadRules(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded rules for %d keys\n", len(keyRules))

	analyzer := worker.AnalyzerFunc(func(ctx context.Context, location string) (*model.Report, error) {
		return p.AnalyzeWith(ctx, location, model.Meta{Store: documentLabel(location), Period: batchPeriod}, keyRules)
	})
	processor := worker.NewBatchProcessor(analyzer, cfg.Concurrency.Workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fmt.Fprintf(os.Stderr, "⚙️  Processing documents with %d workers...\n\n", cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	names := newNameSet()

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Location, result.Error)
			continue
		}

		base := names.unique(strings.TrimSuffix(pipeline.ReportFileName(result.Report.Meta, "json"), ".json"))
		jsonPath := filepath.Join(outputDir, base+".json")
		mdPath := filepath.Join(outputDir, base+".md")

		if err := p.RenderReport(result.Report, jsonPath, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Location, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%s, %s) -> %s\n", result.Location, mentionSummary(result.Report),
			score.Worst(result.Report.Signals), base)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d documents failed", failureCount)
	}
	return nil
}

// documentLabel derives a store label from a document location: its file name
// without extension
func documentLabel(location string) string {
	base := path.Base(strings.ReplaceAll(location, `\`, "/"))
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func mentionSummary(report *model.Report) string {
	parts := make([]string, len(report.Keys))
	for i, kr := range report.Keys {
		parts[i] = fmt.Sprintf("%s: %d", kr.Key, kr.Total)
	}
	return strings.Join(parts, ", ")
}

// nameSet hands out report file names, suffixing repeats with -2, -3, ...
type nameSet map[string]int

func newNameSet() nameSet {
	return make(nameSet)
}

func (s nameSet) unique(name string) string {
	s[name]++
	if n := s[name]; n > 1 {
		return fmt.Sprintf("%s-%d", name, n)
	}
	return name
}
