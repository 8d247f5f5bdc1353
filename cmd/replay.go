package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/config"
	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/scenario"
	"github.com/zjrosen/iceguest/internal/log"
	"github.com/zjrosen/iceguest/internal/presentation"
	"github.com/zjrosen/iceguest/internal/tracing"
	"github.com/zjrosen/iceguest/internal/watcher"
)

// ErrScenarioFailed is returned when a replay's expectations do not hold.
var ErrScenarioFailed = errors.New("scenario expectations failed")

var (
	replayDiff    bool
	replayWatch   bool
	replayFormat  string
	replayJournal bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Replay a scripted editing session against a page fixture",
	Long: `Build the page named by a scenario, dispatch its steps through a fresh
bridge and print every dispatch and the final state.

The command fails when the scenario's expectations do not hold.

Examples:
  iceguest replay sort-feature.yaml
  iceguest replay sort-feature.yaml --diff --format yaml
  iceguest replay sort-feature.yaml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVar(&replayDiff, "diff", false, "print the state diff of every step that changed it")
	replayCmd.Flags().BoolVarP(&replayWatch, "watch", "w", false, "rerun when the scenario or its page changes")
	replayCmd.Flags().StringVarP(&replayFormat, "format", "f", "json", "output format: json or yaml")
	replayCmd.Flags().BoolVar(&replayJournal, "journal", false, "record dispatched events (overrides journal.enabled)")
}

// replayer runs one scenario file and prints its report.
type replayer struct {
	cfg    config.Config
	loader *scenario.Loader
	tp     *tracing.Provider
	out    io.Writer
	format presentation.Format
	diff   bool
}

func runReplay(cmd *cobra.Command, args []string) error {
	format, err := presentation.ParseFormat(replayFormat)
	if err != nil {
		return err
	}
	if replayJournal {
		cfg.Journal.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanupLog, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanupLog()

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer shutdownTracing(tp)

	r := &replayer{
		cfg:    cfg,
		loader: scenario.NewLoader(nil, cachemanager.DefaultExpiration),
		tp:     tp,
		out:    cmd.OutOrStdout(),
		format: format,
		diff:   replayDiff,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if replayWatch {
		return r.watch(ctx, args[0])
	}
	_, err = r.run(ctx, args[0])
	return err
}

// run replays path once. The returned scenario is nil when the file could
// not be read.
func (r *replayer) run(ctx context.Context, path string) (*scenario.Scenario, error) {
	sc, err := scenario.ReadFile(path)
	if err != nil {
		return nil, err
	}

	writer, closeJournal, err := openJournal(ctx, r.cfg.Journal, "replay")
	if err != nil {
		return sc, err
	}
	defer closeJournal()

	opts := bridgeOptions(r.cfg, r.tp)
	if writer != nil {
		opts = append(opts, bridge.WithJournal(writer))
	}
	report, err := scenario.NewRunner(r.loader, scenario.WithBridgeOptions(opts...)).Run(ctx, sc)
	if err != nil {
		return sc, fmt.Errorf("replay %s: %w", path, err)
	}
	hits, misses := r.loader.Stats()
	log.Debug(log.CatScenario, "fixture cache", "hits", hits, "misses", misses)

	dto, err := presentation.FromReport(report, r.diff)
	if err != nil {
		return sc, err
	}
	if err := presentation.NewFormatter(r.out, r.format).FormatReport(dto); err != nil {
		return sc, fmt.Errorf("writing report: %w", err)
	}
	if !report.Passed() {
		return sc, fmt.Errorf("%w: %d failures in %s", ErrScenarioFailed, len(report.Failures), path)
	}
	return sc, nil
}

// watch reruns path whenever it or its page fixture is written, until ctx
// is done. Failed runs are reported and watching continues.
func (r *replayer) watch(ctx context.Context, path string) error {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	for {
		sc, err := r.run(ctx, path)
		if err != nil {
			fmt.Fprintln(r.out, "error:", err)
			log.ErrorErr(log.CatScenario, "replay failed", err, "path", path)
		}
		if sc != nil && sc.PagePath() != "" {
			if err := w.Add(sc.PagePath()); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			log.Info(log.CatWatcher, "scenario changed, replaying", "path", path)
		}
	}
}
