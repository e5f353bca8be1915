package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStreamClient is a mock for the Redis client
type MockStreamClient struct {
	mock.Mock
}

func (m *MockStreamClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if err := mockArgs.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal("1700000000000-0")
	}
	return cmd
}

func TestPublishAddsToStream(t *testing.T) {
	client := new(MockStreamClient)
	client.On("XAdd", mock.Anything, mock.MatchedBy(func(args *redis.XAddArgs) bool {
		values := args.Values.(map[string]interface{})
		if args.Stream != DefaultStream || values["type"] != string(EventTypeSnapshotWritten) || values["run_id"] != "run-1" {
			return false
		}
		var event SnapshotEvent
		if err := json.Unmarshal([]byte(values["data"].(string)), &event); err != nil {
			return false
		}
		return event.ProductCount == 18 && event.Strategy == "category_browse" && event.EventID == values["event_id"]
	})).Return(nil).Once()

	publisher := NewStreamPublisher(client, "", nil)
	event := &SnapshotEvent{
		EventType:    EventTypeSnapshotWritten,
		RunID:        "run-1",
		Strategy:     "category_browse",
		Status:       "fresh",
		ProductCount: 18,
	}

	require.NoError(t, publisher.Publish(context.Background(), event))

	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, "laptop-listing-extractor", event.Source)
	client.AssertExpectations(t)
}

func TestPublishKeepsProvidedMetadata(t *testing.T) {
	client := new(MockStreamClient)
	client.On("XAdd", mock.Anything, mock.Anything).Return(nil)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &SnapshotEvent{EventID: "fixed", Timestamp: ts, EventType: EventTypeSnapshotReused, Source: "cron"}

	require.NoError(t, NewStreamPublisher(client, "stream:custom", nil).Publish(context.Background(), event))

	assert.Equal(t, "fixed", event.EventID)
	assert.Equal(t, ts, event.Timestamp)
	assert.Equal(t, "cron", event.Source)

	args := client.Calls[0].Arguments.Get(1).(*redis.XAddArgs)
	assert.Equal(t, "stream:custom", args.Stream)
}

func TestPublishRedisError(t *testing.T) {
	client := new(MockStreamClient)
	client.On("XAdd", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	err := NewStreamPublisher(client, "", nil).Publish(context.Background(), &SnapshotEvent{EventType: EventTypeExtractionFailed})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), &SnapshotEvent{}))
}
