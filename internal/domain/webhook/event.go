package webhook

import (
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/id"
)

type Status string

const (
	StatusReceived  Status = "received"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// Event is a ledger entry for one verified provider delivery, unique per
// (provider, eventID).
type Event struct {
	id          string
	provider    string
	eventID     string
	eventType   string
	payload     []byte
	status      Status
	outcome     string
	lastError   string
	attempts    int
	receivedAt  time.Time
	processedAt *time.Time
}

func NewEvent(provider, eventID, eventType string, payload []byte) (*Event, error) {
	if provider == "" || eventID == "" {
		return nil, fmt.Errorf("provider and event ID are required")
	}
	return &Event{
		id:         id.New(id.PrefixWebhookEvent),
		provider:   provider,
		eventID:    eventID,
		eventType:  eventType,
		payload:    payload,
		status:     StatusReceived,
		receivedAt: biztime.NowUTC(),
	}, nil
}

func (e *Event) IsProcessed() bool {
	return e.status == StatusProcessed
}

func ReconstructEvent(
	ledgerID, provider, eventID, eventType string,
	payload []byte,
	status Status,
	outcome, lastError string,
	attempts int,
	receivedAt time.Time,
	processedAt *time.Time,
) *Event {
	return &Event{
		id:          ledgerID,
		provider:    provider,
		eventID:     eventID,
		eventType:   eventType,
		payload:     payload,
		status:      status,
		outcome:     outcome,
		lastError:   lastError,
		attempts:    attempts,
		receivedAt:  receivedAt,
		processedAt: processedAt,
	}
}

func (e *Event) ID() string              { return e.id }
func (e *Event) Provider() string        { return e.provider }
func (e *Event) EventID() string         { return e.eventID }
func (e *Event) EventType() string       { return e.eventType }
func (e *Event) Payload() []byte         { return e.payload }
func (e *Event) Status() Status          { return e.status }
func (e *Event) Outcome() string         { return e.outcome }
func (e *Event) LastError() string       { return e.lastError }
func (e *Event) Attempts() int           { return e.attempts }
func (e *Event) ReceivedAt() time.Time   { return e.receivedAt }
func (e *Event) ProcessedAt() *time.Time { return e.processedAt }
