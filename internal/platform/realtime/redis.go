package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hospease/hospease/internal/platform/metrics"
)

// DefaultChannel is the pub/sub channel shared by every server process.
const DefaultChannel = "hospease:events"

// RedisBroadcaster publishes events to a Redis channel. Run relays the
// channel into the local Hub, so a broadcast from any process reaches the
// clients connected to every process.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRedisClient parses a redis:// URL and verifies the server responds.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisBroadcaster(client *redis.Client, channel string, hub *Hub, logger zerolog.Logger, m *metrics.Metrics) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger.With().Str("component", "realtime.redis").Logger(),
		metrics: m,
	}
}

// Broadcast implements Broadcaster.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, topic, event string, payload any) error {
	err := b.publish(ctx, topic, event, payload)
	b.metrics.Broadcast(event, err)
	return err
}

func (b *RedisBroadcaster) publish(ctx context.Context, topic, event string, payload any) error {
	evt, err := NewEvent(topic, event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event, b.channel, err)
	}
	return nil
}

// Run relays channel messages into the local hub until ctx is cancelled.
func (b *RedisBroadcaster) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.Info().Str("channel", b.channel).Msg("relaying events from redis")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBroadcaster) relay(payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("discarding malformed event")
		return
	}
	if !ValidRoom(evt.Topic) {
		b.logger.Warn().Str("topic", evt.Topic).Msg("discarding event for invalid room")
		return
	}
	b.hub.Publish(evt)
}
