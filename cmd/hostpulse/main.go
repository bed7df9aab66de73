package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/srodi/hostpulse/pkg/collector"
	"github.com/srodi/hostpulse/pkg/config"
	"github.com/srodi/hostpulse/pkg/export"
	"github.com/srodi/hostpulse/pkg/monitor"
	"github.com/srodi/hostpulse/pkg/ui"
)

var errQuit = errors.New("quit requested")

type flagValues struct {
	configPath string
	interval   time.Duration
	topK       int
	hideKernel bool
	filter     string
	hotRatio   float64
	once       bool
	format     string
	logFile    string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fv flagValues
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "hostpulse",
		Short: "Live host and per-process CPU/memory view",
		Long: `hostpulse samples /proc every interval and shows host CPU and memory
utilization together with the busiest processes.

Examples:
  # Interactive view refreshed every second
  hostpulse --interval 1s

  # One sample in Prometheus text format for a node_exporter textfile directory
  hostpulse --once --format prom > /var/lib/node_exporter/hostpulse.prom`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), fv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fv.configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	flags.DurationVar(&fv.interval, "interval", defaults.Interval, "sampling interval (e.g. 1s, 500ms)")
	flags.IntVar(&fv.topK, "topk", defaults.TopK, "number of processes to display")
	flags.BoolVar(&fv.hideKernel, "hide-kernel", defaults.HideKernel, "hide kernel threads such as kworker, ksoftirqd, etc")
	flags.StringVar(&fv.filter, "filter", "", "only show processes whose command contains this substring (case-insensitive)")
	flags.Float64Var(&fv.hotRatio, "hot-ratio", defaults.HotRatio, "highlight rows at or above this CPU ratio (0-1]")
	flags.BoolVar(&fv.once, "once", false, "print a single sample and exit")
	flags.StringVar(&fv.format, "format", defaults.Format, "output format for --once: table, json or prom")
	flags.StringVar(&fv.logFile, "log-file", "", "write JSON logs to this file")
	flags.StringVar(&fv.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

// loadConfig layers explicitly set flags over the file and environment settings.
func loadConfig(flags *pflag.FlagSet, fv flagValues) (config.Config, error) {
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("interval") {
		cfg.Interval = fv.interval
	}
	if flags.Changed("topk") {
		cfg.TopK = fv.topK
	}
	if flags.Changed("hide-kernel") {
		cfg.HideKernel = fv.hideKernel
	}
	if flags.Changed("filter") {
		cfg.CommandFilter = fv.filter
	}
	if flags.Changed("hot-ratio") {
		cfg.HotRatio = fv.hotRatio
	}
	if flags.Changed("once") {
		cfg.Once = fv.once
	}
	if flags.Changed("format") {
		cfg.Format = fv.format
	}
	if flags.Changed("log-file") {
		cfg.LogFile = fv.logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger, err := cfg.BuildLogger()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	src, err := collector.NewProcFS(cfg.CollectorOptions())
	if err != nil {
		return err
	}
	defer src.Close()

	mon := monitor.New(src, monitor.WithLogger(logger))
	if cfg.Once {
		return runOnce(ctx, mon, cfg, out)
	}
	return runInteractive(ctx, mon, cfg, logger)
}

// runOnce takes a baseline sample, waits one interval and prints the second sample.
func runOnce(ctx context.Context, mon *monitor.Monitor, cfg config.Config, out io.Writer) error {
	if _, err := mon.Refresh(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(cfg.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	snap, err := mon.Refresh(ctx)
	if err != nil {
		return err
	}

	switch cfg.Format {
	case config.FormatJSON:
		return ui.WriteJSON(out, snap)
	case config.FormatProm:
		return export.WriteText(out, snap, cfg.TopK)
	default:
		return ui.Render(out, snap, mon.HostInfo(), ui.RenderOptions{
			Interval: cfg.Interval,
			TopK:     cfg.TopK,
			Filter:   cfg.Filter(),
			Color:    !color.NoColor,
			HotRatio: cfg.HotRatio,
		})
	}
}

func runInteractive(ctx context.Context, mon *monitor.Monitor, cfg config.Config, logger *zap.Logger) error {
	restore := enableSingleView(logger)
	defer restore()

	quit := make(chan struct{})
	if stdinIsTerminal() {
		go readKeys(os.Stdin, quit)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			return errQuit
		}
	})
	g.Go(func() error {
		return refreshLoop(ctx, mon, cfg, logger, os.Stdout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func refreshLoop(ctx context.Context, mon *monitor.Monitor, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	opts := ui.RenderOptions{
		Interval:   cfg.Interval,
		TopK:       cfg.TopK,
		Filter:     cfg.Filter(),
		Color:      !color.NoColor,
		ShowBanner: true,
		HotRatio:   cfg.HotRatio,
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		if err := drawFrame(ctx, mon, opts, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func drawFrame(ctx context.Context, mon *monitor.Monitor, opts ui.RenderOptions, out io.Writer) error {
	snap, err := mon.Refresh(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(clearScreen)
	if err := ui.Render(&buf, snap, mon.HostInfo(), opts); err != nil {
		return err
	}
	_, err = out.Write(buf.Bytes())
	return err
}

// readKeys closes quit when q is pressed or stdin ends.
func readKeys(r io.Reader, quit chan<- struct{}) {
	defer close(quit)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 1 && (buf[0] == 'q' || buf[0] == 'Q') {
			return
		}
	}
}
