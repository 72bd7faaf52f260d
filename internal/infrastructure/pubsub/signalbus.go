package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const defaultSignalChannel = "bookwell:signals"

// SignalEnvelope is the wire form of a relayed signal.
type SignalEnvelope struct {
	InstanceID string          `json:"instance_id"`
	EventType  string          `json:"event_type"`
	Event      json.RawMessage `json:"event"`
	Timestamp  int64           `json:"timestamp"`
}

// SignalHandler receives relayed signals.
type SignalHandler func(ctx context.Context, event events.DomainEvent)

// RedisSignalBus relays signals to other processes over Redis Pub/Sub. As a
// dispatcher subscriber it forwards locally raised signals; Subscribe reads
// them back on the consuming side. Relayed signals are never forwarded again.
type RedisSignalBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     logger.Interface
}

func NewRedisSignalBus(client *redis.Client, channel string, logger logger.Interface) *RedisSignalBus {
	if channel == "" {
		channel = defaultSignalChannel
	}
	return &RedisSignalBus{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (b *RedisSignalBus) InstanceID() string { return b.instanceID }

func (b *RedisSignalBus) Name() string                    { return "redis-signal-bus" }
func (b *RedisSignalBus) CanHandle(eventType string) bool { return true }

func (b *RedisSignalBus) Handle(ctx context.Context, event events.DomainEvent) error {
	if event.GetOrigin() != "" {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	envelope, err := json.Marshal(SignalEnvelope{
		InstanceID: b.instanceID,
		EventType:  event.GetEventType(),
		Event:      data,
		Timestamp:  biztime.NowUTC().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal signal envelope: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, envelope).Err(); err != nil {
		b.logger.Errorw("failed to relay signal",
			"event_type", event.GetEventType(),
			"aggregate_id", event.GetAggregateID(),
			"error", err,
		)
		return fmt.Errorf("failed to publish signal: %w", err)
	}

	b.logger.Debugw("signal relayed",
		"event_type", event.GetEventType(),
		"aggregate_id", event.GetAggregateID(),
	)
	return nil
}

// Subscribe blocks until ctx is done, calling handler for every signal
// published by another bus instance.
func (b *RedisSignalBus) Subscribe(ctx context.Context, handler SignalHandler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to signal relay", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("signal relay subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("signal relay channel closed")
				return nil
			}

			var envelope SignalEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				b.logger.Warnw("failed to unmarshal signal envelope", "error", err)
				continue
			}
			if envelope.InstanceID == b.instanceID {
				continue
			}

			event, err := events.DecodeSignal(envelope.EventType, envelope.Event, envelope.InstanceID)
			if err != nil {
				b.logger.Warnw("failed to decode relayed signal",
					"event_type", envelope.EventType,
					"error", err,
				)
				continue
			}
			handler(ctx, event)
		}
	}
}
