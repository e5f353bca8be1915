package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeSnapshotWritten is published after a fresh snapshot is saved
	EventTypeSnapshotWritten EventType = "SNAPSHOT_WRITTEN"
	// EventTypeSnapshotReused is published when a run falls back to the stored snapshot
	EventTypeSnapshotReused EventType = "SNAPSHOT_REUSED"
	// EventTypeExtractionFailed is published when no data could be produced
	EventTypeExtractionFailed EventType = "EXTRACTION_FAILED"
)

const DefaultStream = "stream:laptop_snapshots"

// SnapshotEvent describes the outcome of one extraction run.
type SnapshotEvent struct {
	EventID      string    `json:"event_id"`
	EventType    EventType `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	RunID        string    `json:"run_id"`
	Strategy     string    `json:"strategy,omitempty"`
	Status       string    `json:"status"`
	ProductCount int       `json:"product_count"`
	SnapshotPath string    `json:"snapshot_path,omitempty"`
	Error        string    `json:"error,omitempty"`
	Source       string    `json:"source"`
}

// Publisher is what the pipeline reports run outcomes to.
type Publisher interface {
	Publish(ctx context.Context, event *SnapshotEvent) error
}

// StreamClient interface for Redis operations (for testing)
type StreamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

var _ StreamClient = (*redis.Client)(nil)

// StreamPublisher appends events to a Redis stream.
type StreamPublisher struct {
	client StreamClient
	stream string
	logger *slog.Logger
}

func NewStreamPublisher(client StreamClient, stream string, logger *slog.Logger) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// Publish fills in missing metadata and XADDs the event.
func (p *StreamPublisher) Publish(ctx context.Context, event *SnapshotEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Source == "" {
		event.Source = "laptop-listing-extractor"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"type":      string(event.EventType),
			"timestamp": fmt.Sprintf("%d", event.Timestamp.UnixNano()),
			"event_id":  event.EventID,
			"run_id":    event.RunID,
		},
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"type", event.EventType,
		"event_id", event.EventID,
		"run_id", event.RunID,
		"stream", p.stream,
		"stream_id", id,
	)
	return nil
}

// Noop discards events. Used when no Redis address is configured.
type Noop struct{}

func (Noop) Publish(context.Context, *SnapshotEvent) error { return nil }

// Connect returns a Redis client for addr after checking it answers PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
