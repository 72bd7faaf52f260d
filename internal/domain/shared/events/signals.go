package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
)

const (
	EventTypeBookingCreated            = "booking.created"
	EventTypeBookingConfirmed          = "booking.confirmed"
	EventTypeBookingCancelled          = "booking.cancelled"
	EventTypeBookingCompleted          = "booking.completed"
	EventTypeSubscriptionStatusChanged = "subscription.status_changed"
)

// AllEventTypes lists every signal the application emits.
func AllEventTypes() []string {
	return []string{
		EventTypeBookingCreated,
		EventTypeBookingConfirmed,
		EventTypeBookingCancelled,
		EventTypeBookingCompleted,
		EventTypeSubscriptionStatusChanged,
	}
}

// BookingEvent reports a booking lifecycle change. The aggregate id is the
// booking id.
type BookingEvent struct {
	BaseEvent
	ProfessionalID string    `json:"professional_id"`
	ServiceID      string    `json:"service_id"`
	ClientID       string    `json:"client_id,omitempty"`
	Status         string    `json:"status"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
}

// SubscriptionStatusChangedEvent reports a new provider status. The aggregate
// id is the internal subscription id.
type SubscriptionStatusChangedEvent struct {
	BaseEvent
	ExternalID     string `json:"external_id"`
	ClientID       string `json:"client_id"`
	ServiceID      string `json:"service_id"`
	PreviousStatus string `json:"previous_status,omitempty"`
	Status         string `json:"status"`
}

func NewBaseEvent(aggregateID, eventType string) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		OccurredAt:  biztime.NowUTC(),
		Version:     1,
	}
}

// DecodeSignal rebuilds a signal from its JSON form, tagging it with origin.
func DecodeSignal(eventType string, data []byte, origin string) (DomainEvent, error) {
	switch eventType {
	case EventTypeBookingCreated, EventTypeBookingConfirmed, EventTypeBookingCancelled, EventTypeBookingCompleted:
		var e BookingEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", eventType, err)
		}
		e.Origin = origin
		return e, nil
	case EventTypeSubscriptionStatusChanged:
		var e SubscriptionStatusChangedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", eventType, err)
		}
		e.Origin = origin
		return e, nil
	default:
		return nil, fmt.Errorf("unknown signal type %q", eventType)
	}
}
