// Package pipeline sequences the acquisition strategies of one extraction run
// and decides whether the run produced usable data.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/laptop-listing-extractor/internal/events"
	"github.com/maltedev/laptop-listing-extractor/internal/metrics"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/scraper"
	"github.com/maltedev/laptop-listing-extractor/internal/storage"
)

// ErrNoData means every strategy came back empty and no snapshot exists.
var ErrNoData = errors.New("no product data available")

type Status string

const (
	StatusFresh    Status = "fresh"
	StatusCached   Status = "cached"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Session is the browser handle a run owns from start to Close.
type Session interface {
	scraper.Page
	Close() error
}

// SessionStarter launches the browser for one run.
type SessionStarter func(headless bool) (Session, error)

// Strategy is one self-contained attempt at producing records.
type Strategy struct {
	Name    string
	Acquire func() ([]models.ProductRecord, error)
}

// StrategyBuilder assembles the ordered strategies for a started session.
type StrategyBuilder func(s Session, req Request) []Strategy

type Request struct {
	ExplicitURL string
	UseExplicit bool
	Headless    bool
	// Refresh skips the freshness short-circuit.
	Refresh bool
}

type Outcome struct {
	Status   Status
	Strategy string
	Records  []models.ProductRecord
	Path     string
	RunID    string
}

// Succeeded reports whether the run ended with data the caller can use.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusFresh || o.Status == StatusCached || o.Status == StatusDegraded
}

type Orchestrator struct {
	snapshot  *storage.Snapshot
	maxAge    time.Duration
	start     SessionStarter
	build     StrategyBuilder
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrchestrator(snapshot *storage.Snapshot, maxAge time.Duration, start SessionStarter, build StrategyBuilder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		snapshot:  snapshot,
		maxAge:    maxAge,
		start:     start,
		build:     build,
		publisher: events.Noop{},
		logger:    logger.With("component", "orchestrator"),
		now:       time.Now,
	}
}

func (o *Orchestrator) WithPublisher(p events.Publisher) *Orchestrator {
	if p != nil {
		o.publisher = p
	}
	return o
}

func (o *Orchestrator) WithMetrics(m *metrics.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes one extraction run. The only errors it returns are a session
// start failure and ErrNoData; everything else degrades to the next strategy.
// ctx is used for event publishing only.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Outcome, error) {
	runID := uuid.NewString()
	log := o.logger.With("run_id", runID)
	began := o.now()

	out := Outcome{RunID: runID, Path: o.snapshot.Path()}
	defer func() {
		o.metrics.ObserveRun(string(out.Status), o.now().Sub(began))
	}()

	if !req.Refresh && o.snapshot.IsFresh(o.now(), o.maxAge) {
		records, err := o.snapshot.Load()
		if err == nil {
			out.Status, out.Strategy, out.Records = StatusCached, "cache", records
			log.Info("using fresh snapshot", "path", out.Path, "records", len(records))
			return out, nil
		}
		log.Warn("fresh snapshot unreadable, extracting live", "error", err)
	}

	session, err := o.start(req.Headless)
	if err != nil {
		out.Status = StatusFailed
		log.Error("browser session failed to start", "error", err)
		o.publish(ctx, log, out, events.EventTypeExtractionFailed, err)
		return out, err
	}

	records, strategy := o.extractLive(session, req, log)

	if len(records) > 0 {
		out.Status, out.Strategy, out.Records = StatusFresh, strategy, records
		if err := o.snapshot.Save(records); err != nil {
			log.Error("failed to save snapshot", "path", out.Path, "error", err)
			out.Path = ""
		} else {
			o.publish(ctx, log, out, events.EventTypeSnapshotWritten, nil)
		}
		o.metrics.AddProducts(len(records))
		log.Info("extraction succeeded", "strategy", strategy, "records", len(records), "path", out.Path)
		return out, nil
	}

	stale, err := o.snapshot.Load()
	if err == nil {
		out.Status, out.Strategy, out.Records = StatusDegraded, "stale_snapshot", stale
		age, _ := o.snapshot.Age(o.now())
		log.Warn("all strategies failed, falling back to stale snapshot",
			"path", out.Path, "records", len(stale), "age", age.Round(time.Second))
		o.publish(ctx, log, out, events.EventTypeSnapshotReused, nil)
		return out, nil
	}

	out.Status = StatusFailed
	out.Path = ""
	log.Error("all strategies failed and no snapshot is available", "error", err)
	o.publish(ctx, log, out, events.EventTypeExtractionFailed, err)
	return out, fmt.Errorf("all strategies exhausted: %w", ErrNoData)
}

// extractLive runs the strategies and releases the session on every path,
// including a panic while building strategies or taking screenshots.
func (o *Orchestrator) extractLive(session Session, req Request, log *slog.Logger) (records []models.ProductRecord, strategy string) {
	defer o.closeSession(session, log)
	defer func() {
		if r := recover(); r != nil {
			log.Error("strategy run panicked", "panic", r)
			records, strategy = nil, ""
		}
	}()
	return o.runStrategies(session, req, log)
}

func (o *Orchestrator) closeSession(session Session, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("browser session close panicked", "panic", r)
		}
	}()
	if err := session.Close(); err != nil {
		log.Warn("failed to close browser session", "error", err)
	}
}

func (o *Orchestrator) runStrategies(session Session, req Request, log *slog.Logger) ([]models.ProductRecord, string) {
	strategies := o.build(session, req)
	for _, s := range strategies {
		log.Info("trying strategy", "strategy", s.Name)

		records := o.attempt(s, log)
		o.metrics.ObserveStrategy(s.Name, len(records) > 0)
		if len(records) > 0 {
			return records, s.Name
		}

		if path := session.Screenshot("extraction_failed_" + s.Name); path != "" {
			log.Info("saved failure screenshot", "strategy", s.Name, "path", path)
		}
	}
	return nil, ""
}

// attempt runs one strategy and keeps only retainable records. Errors and
// panics end the strategy, never the run.
func (o *Orchestrator) attempt(s Strategy, log *slog.Logger) (records []models.ProductRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("strategy panicked", "strategy", s.Name, "panic", r)
			records = nil
		}
	}()

	if s.Acquire == nil {
		return nil
	}
	got, err := s.Acquire()
	if err != nil {
		log.Warn("strategy failed", "strategy", s.Name, "error", err)
		return nil
	}

	for _, r := range got {
		if r.Valid() {
			records = append(records, r)
		}
	}
	if dropped := len(got) - len(records); dropped > 0 {
		log.Warn("dropped invalid records", "strategy", s.Name, "dropped", dropped)
	}
	if len(records) == 0 {
		log.Warn("strategy yielded no products", "strategy", s.Name)
	}
	return records
}

func (o *Orchestrator) publish(ctx context.Context, log *slog.Logger, out Outcome, typ events.EventType, cause error) {
	event := &events.SnapshotEvent{
		EventType:    typ,
		RunID:        out.RunID,
		Strategy:     out.Strategy,
		Status:       string(out.Status),
		ProductCount: len(out.Records),
		SnapshotPath: out.Path,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish run event", "type", typ, "error", err)
	}
}
