package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ppiankov/inspectra/internal/model"
	"github.com/ppiankov/inspectra/internal/pipeline"
	"github.com/ppiankov/inspectra/internal/source"
)

const watchDebounce = 300 * time.Millisecond

var (
	watchStore  string
	watchPeriod string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <document>",
	Short: "Re-analyze a local report whenever it or a rule file changes",
	Long: `Watch analyzes a local document, prints the summary and then re-runs the
analysis each time the document or one of the local rule files is saved.
Useful while tuning keywords.

Example:
  inspectra watch report.pdf
  inspectra watch report.txt --rules С5=./rules_c5.txt --details`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindCommonFlags,
	RunE:    runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchStore, "store", "", "store label printed on the report")
	watchCmd.Flags().StringVar(&watchPeriod, "period", "", "period label printed on the report")
	addCommonFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	location := args[0]
	if source.IsRemote(location) {
		return fmt.Errorf("watch needs a local document, got %s", location)
	}

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	// Edited documents must be re-extracted, never served from cache
	cfg.Cache.Enabled = false
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newFileWatcher(append([]string{location}, localRuleFiles(cfg)...), logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	p := pipeline.NewPipeline(cfg, logger)
	meta := model.Meta{Store: watchStore, Period: watchPeriod}

	run := func() {
		report, err := p.Analyze(ctx, location, meta)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			return
		}
		p.Renderer().RenderSummary(os.Stdout, report)
	}

	run()
	fmt.Fprintf(os.Stderr, "Watching %d file(s), press Ctrl+C to stop\n", len(w.files))

	return w.Run(ctx, watchDebounce, func(changed string) {
		fmt.Fprintf(os.Stderr, "⚙️  %s changed, re-analyzing...\n", changed)
		run()
	})
}

func localRuleFiles(cfg *model.Config) []string {
	var files []string
	for _, k := range cfg.Keys {
		if k.Rules != "" && !source.IsRemote(k.Rules) {
			files = append(files, k.Rules)
		}
	}
	return files
}

// fileWatcher reports changes to a fixed set of files. It watches their
// directories so editors that replace files on save are still seen.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	logger  *slog.Logger
}

func newFileWatcher(paths []string, logger *slog.Logger) (*fileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	fw := &fileWatcher{watcher: watcher, files: make(map[string]bool), logger: logger}
	dirs := make(map[string]bool)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		fw.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return fw, nil
}

// Run calls onChange once per burst of events on a watched file until ctx ends
func (fw *fileWatcher) Run(ctx context.Context, debounce time.Duration, onChange func(path string)) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange(pending)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				fw.logger.Warn("watch events dropped", "error", err)
				continue
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

func (fw *fileWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && fw.files[abs]
}

// Close stops watching
func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
