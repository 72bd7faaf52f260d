package events

import (
	"context"
	"time"
)

// DomainEvent is a signal emitted after a committed state change.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetOccurredAt() time.Time
	GetVersion() int
	// GetOrigin names the instance an event was relayed from; empty for
	// events raised locally.
	GetOrigin() string
}

// BaseEvent provides common fields for all domain events
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	Version     int       `json:"version"`
	Origin      string    `json:"-"`
}

func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetOccurredAt() time.Time { return e.OccurredAt }
func (e BaseEvent) GetVersion() int          { return e.Version }
func (e BaseEvent) GetOrigin() string        { return e.Origin }

// EventHandler consumes dispatched events. Errors are logged by the
// dispatcher and never reach the publisher.
type EventHandler interface {
	Name() string
	CanHandle(eventType string) bool
	Handle(ctx context.Context, event DomainEvent) error
}

// EventPublisher hands events to subscribers without waiting for them.
type EventPublisher interface {
	Publish(event DomainEvent) error
	PublishAll(events []DomainEvent) error
}
