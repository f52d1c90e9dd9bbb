package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const broadcastChannel = "ticket-events"

// RedisBroadcaster fans ticket events out across service instances via
// Redis pub/sub and feeds a local Stream for in-process subscribers.
type RedisBroadcaster struct {
	client *redis.Client
	stream *Stream
	logger *zap.Logger
}

// NewRedisBroadcaster builds the broadcaster.
func NewRedisBroadcaster(client *redis.Client, stream *Stream, logger *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, stream: stream, logger: logger}
}

// Publish sends the event to the shared Redis channel. Delivery is
// best-effort: a publish failure is logged, not surfaced, because the
// originating write has already committed.
func (b *RedisBroadcaster) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, broadcastChannel, payload).Err(); err != nil {
		b.logger.Warn("event broadcast failed", zap.String("event_id", event.ID), zap.Error(err))
	}
	return nil
}

// Run consumes the shared channel and republishes into the local stream
// until ctx is cancelled.
func (b *RedisBroadcaster) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, broadcastChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("malformed broadcast event", zap.Error(err))
				continue
			}
			b.stream.Publish(event)
		}
	}
}
