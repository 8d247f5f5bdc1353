package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/iceguest/internal/config"
	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/hostlink"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/log"
	"github.com/zjrosen/iceguest/internal/tracing"
	"github.com/zjrosen/iceguest/internal/ui/overlay"
)

var (
	connectURL      string
	connectLocation string
	connectTUI      bool
	connectJournal  bool
)

var connectCmd = &cobra.Command{
	Use:   "connect <page.yaml>",
	Short: "Run the guest for a page against a live authoring host",
	Long: `Mount a page fixture, check in with the authoring host over socket.io and
dispatch host messages into the editing state machine. Every new state is
sent back to the host.

Examples:
  iceguest connect home.yaml
  iceguest connect home.yaml --url https://studio.local:8443 --tui
  iceguest connect home.yaml --location /site/website/about/index.xml --journal`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().StringVar(&connectURL, "url", "", "host URL (overrides host.url)")
	connectCmd.Flags().StringVar(&connectLocation, "location", "/", "preview location reported at check-in")
	connectCmd.Flags().BoolVar(&connectTUI, "tui", false, "render the guest state in the terminal")
	connectCmd.Flags().BoolVar(&connectJournal, "journal", false, "record dispatched events (overrides journal.enabled)")
}

func runConnect(cmd *cobra.Command, args []string) error {
	if connectURL != "" {
		cfg.Host.URL = connectURL
	}
	if connectJournal {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadPage(args[0])
	if err != nil {
		return err
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer shutdownTracing(tp)

	writer, closeJournal, err := openJournal(ctx, cfg.Journal, "connect")
	if err != nil {
		return err
	}
	defer closeJournal()

	opts := bridgeOptions(cfg, tp)
	opts = append(opts, bridge.WithSandboxCache(newSandboxCache(ctx, cfg.Cache, p.SandboxItems), cfg.Cache.SandboxTTL))
	if writer != nil {
		opts = append(opts, bridge.WithJournal(writer))
	}
	b := bridge.New(p.ICE, p.Elements, opts...)
	go b.Run(ctx)
	if err := b.WaitForReady(ctx); err != nil {
		return err
	}
	defer func() {
		b.Stop()
		log.Info(log.CatBridge, "bridge stopped",
			"processed", b.ProcessedCount(),
			"dropped", b.DroppedCount(),
			"errors", b.ErrorCount())
	}()

	transport, err := hostlink.Dial(ctx, cfg.Host)
	if err != nil {
		return err
	}
	defer func() { _ = transport.Close() }()

	link := hostlink.New(transport, b, b.Broker(), connectLocation)
	if !connectTUI {
		fmt.Fprintf(cmd.OutOrStdout(), "connected to %s, press ctrl+c to stop\n", cfg.Host.URL)
		return link.Run(ctx)
	}
	return runOverlay(ctx, b, link)
}

// runOverlay runs the link in the background while the terminal overlay
// owns the screen. Quitting the overlay ends the session.
func runOverlay(ctx context.Context, b *bridge.Bridge, link *hostlink.Link) error {
	linkCtx, cancelLink := context.WithCancel(ctx)
	linkDone := make(chan error, 1)
	go func() { linkDone <- link.Run(linkCtx) }()

	guest := cfg.Guest
	path := configFilePath()
	m := overlay.New(ctx, overlay.Options{
		States:   b.Broker(),
		Dispatch: b,
		Logs:     log.NewListener(ctx),
		ShowLog:  cfg.UI.ShowLog,
		SaveHighlightMode: func(mode machine.HighlightMode) error {
			guest.HighlightMode = string(mode)
			return config.SaveGuest(path, guest)
		},
	})

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	cancelLink()
	if linkErr := <-linkDone; err == nil {
		err = linkErr
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("running overlay: %w", err)
	}
	return nil
}

func shutdownTracing(tp *tracing.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatBridge, "flushing traces", err)
	}
}
