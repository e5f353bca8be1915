package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/maltedev/laptop-listing-extractor/internal/browser"
	"github.com/maltedev/laptop-listing-extractor/internal/config"
	"github.com/maltedev/laptop-listing-extractor/internal/events"
	"github.com/maltedev/laptop-listing-extractor/internal/metrics"
	"github.com/maltedev/laptop-listing-extractor/internal/pipeline"
	"github.com/maltedev/laptop-listing-extractor/internal/storage"
	"github.com/maltedev/laptop-listing-extractor/pkg/logger"
)

// app holds what every subcommand needs after flags are parsed.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	snapshot *storage.Snapshot
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Apply CLI overrides
	if visible {
		cfg.Browser.Headless = false
	}
	if dataFile != "" {
		cfg.Output.DataDir = filepath.Dir(dataFile)
		cfg.Output.SnapshotFile = filepath.Base(dataFile)
	}
	level := cfg.Logging.Level
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "warn"
	}

	return &app{
		cfg:      cfg,
		logger:   logger.Init(level, cfg.Logging.Format),
		metrics:  metrics.New(),
		snapshot: storage.NewSnapshot(cfg.Output.SnapshotPath()),
	}, nil
}

func (a *app) startSession(headless bool) (pipeline.Session, error) {
	opts := a.cfg.BrowserOptions()
	opts.Headless = headless
	s, err := browser.Start(opts, a.cfg.Pacer(), a.logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// publisher connects to Redis when an address is configured. An unreachable
// Redis only costs the events.
func (a *app) publisher(ctx context.Context) (events.Publisher, func()) {
	if a.cfg.Events.RedisAddr == "" {
		return events.Noop{}, func() {}
	}
	client, err := events.Connect(ctx, a.cfg.Events.RedisAddr, a.cfg.Events.RedisPassword, a.cfg.Events.RedisDB)
	if err != nil {
		a.logger.Warn("event publishing disabled", "error", err)
		return events.Noop{}, func() {}
	}
	return events.NewStreamPublisher(client, a.cfg.Events.Stream, a.logger), func() { client.Close() }
}

func (a *app) runExtraction(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error) {
	live, err := pipeline.NewLive(a.cfg, a.metrics, a.logger)
	if err != nil {
		return pipeline.Outcome{Status: pipeline.StatusFailed}, err
	}
	publisher, closePublisher := a.publisher(ctx)
	defer closePublisher()

	o := pipeline.NewOrchestrator(a.snapshot, a.cfg.Output.MaxAge, a.startSession, live.Build, a.logger).
		WithPublisher(publisher).
		WithMetrics(a.metrics)

	out, err := o.Run(ctx, req)
	if werr := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); werr != nil {
		a.logger.Warn("failed to write metrics", "error", werr)
	}
	return out, err
}

func printOutcome(w io.Writer, out pipeline.Outcome) {
	switch out.Status {
	case pipeline.StatusFresh:
		fmt.Fprintf(w, "Extracted %d products via %s\nSnapshot: %s\n", len(out.Records), out.Strategy, out.Path)
	case pipeline.StatusCached:
		fmt.Fprintf(w, "Using fresh snapshot with %d products\nSnapshot: %s\n", len(out.Records), out.Path)
	case pipeline.StatusDegraded:
		fmt.Fprintf(w, "Live extraction failed, using stale snapshot with %d products\nSnapshot: %s\n", len(out.Records), out.Path)
	}
}

func printFailureHint(w io.Writer, err error) {
	fmt.Fprintf(w, "Extraction failed: %v\n", err)
	fmt.Fprintln(w, "Provide an existing data file to skip extraction:")
	fmt.Fprintln(w, "  extractor report --data-file <path/to/raw_product_data.json>")
}
