// Package messaging publishes signals to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const defaultExchange = "bookwell.signals"

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// SignalPublisher writes every signal to a durable topic exchange, routed by
// event type (booking.created, subscription.status_changed, ...).
type SignalPublisher struct {
	conn     *amqp.Connection
	ch       publishChannel
	closeCh  func() error
	exchange string
	mu       sync.Mutex
	logger   logger.Interface
}

func NewSignalPublisher(url, exchange string, logger logger.Interface) (*SignalPublisher, error) {
	if exchange == "" {
		exchange = defaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := newSignalPublisher(ch, exchange, logger)
	p.conn = conn
	p.closeCh = ch.Close
	logger.Infow("rabbitmq signal publisher ready", "exchange", exchange)
	return p, nil
}

func newSignalPublisher(ch publishChannel, exchange string, logger logger.Interface) *SignalPublisher {
	return &SignalPublisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}
}

func (p *SignalPublisher) Name() string                    { return "amqp-signal-publisher" }
func (p *SignalPublisher) CanHandle(eventType string) bool { return true }

func (p *SignalPublisher) Handle(ctx context.Context, event events.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.GetOccurredAt(),
		Type:         event.GetEventType(),
		Body:         body,
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, event.GetEventType(), false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s to rabbitmq: %w", event.GetEventType(), err)
	}

	p.logger.Debugw("signal published to rabbitmq",
		"exchange", p.exchange,
		"routing_key", event.GetEventType(),
		"aggregate_id", event.GetAggregateID(),
	)
	return nil
}

func (p *SignalPublisher) Close() error {
	if p.closeCh != nil {
		_ = p.closeCh()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
