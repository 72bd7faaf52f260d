package subscription

import (
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/id"
)

// Provider status strings this package refers to. Any other status the
// provider reports is stored verbatim.
const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// ProviderState is the provider's current view of a subscription. Applying it
// overwrites the stored fields wholesale.
type ProviderState struct {
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// Subscription is a recurring-billing agreement for one service and client.
type Subscription struct {
	id                 string
	externalID         string
	clientID           string
	serviceID          string
	paymentID          *string
	status             string
	currentPeriodStart *time.Time
	currentPeriodEnd   *time.Time
	cancelAtPeriodEnd  bool

	version   int
	createdAt time.Time
	updatedAt time.Time
}

func NewSubscription(externalID, clientID, serviceID, paymentID string, state ProviderState) (*Subscription, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external subscription ID is required")
	}
	if clientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if serviceID == "" {
		return nil, fmt.Errorf("service ID is required")
	}
	if state.Status == "" {
		return nil, fmt.Errorf("subscription status is required")
	}

	now := biztime.NowUTC()
	s := &Subscription{
		id:         id.New(id.PrefixSubscription),
		externalID: externalID,
		clientID:   clientID,
		serviceID:  serviceID,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}
	if paymentID != "" {
		s.paymentID = &paymentID
	}
	s.overwrite(state)
	return s, nil
}

func (s *Subscription) overwrite(state ProviderState) {
	s.status = state.Status
	s.currentPeriodStart = utcPtr(state.CurrentPeriodStart)
	s.currentPeriodEnd = utcPtr(state.CurrentPeriodEnd)
	s.cancelAtPeriodEnd = state.CancelAtPeriodEnd
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ApplyProviderState replaces status, period and cancellation flag with the
// provider's values. It reports whether the status string changed.
func (s *Subscription) ApplyProviderState(state ProviderState) (statusChanged bool) {
	statusChanged = s.status != state.Status
	s.overwrite(state)
	s.updatedAt = biztime.NowUTC()
	s.version++
	return statusChanged
}

// MarkPastDue records a failed renewal charge.
func (s *Subscription) MarkPastDue() bool {
	if s.status == StatusPastDue {
		return false
	}
	s.status = StatusPastDue
	s.updatedAt = biztime.NowUTC()
	s.version++
	return true
}

func (s *Subscription) ID() string                     { return s.id }
func (s *Subscription) ExternalID() string             { return s.externalID }
func (s *Subscription) ClientID() string               { return s.clientID }
func (s *Subscription) ServiceID() string              { return s.serviceID }
func (s *Subscription) PaymentID() *string             { return s.paymentID }
func (s *Subscription) Status() string                 { return s.status }
func (s *Subscription) CurrentPeriodStart() *time.Time { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() *time.Time   { return s.currentPeriodEnd }
func (s *Subscription) CancelAtPeriodEnd() bool        { return s.cancelAtPeriodEnd }
func (s *Subscription) Version() int                   { return s.version }
func (s *Subscription) CreatedAt() time.Time           { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time           { return s.updatedAt }

func ReconstructSubscription(
	subscriptionID, externalID, clientID, serviceID string,
	paymentID *string,
	status string,
	currentPeriodStart, currentPeriodEnd *time.Time,
	cancelAtPeriodEnd bool,
	version int,
	createdAt, updatedAt time.Time,
) *Subscription {
	return &Subscription{
		id:                 subscriptionID,
		externalID:         externalID,
		clientID:           clientID,
		serviceID:          serviceID,
		paymentID:          paymentID,
		status:             status,
		currentPeriodStart: currentPeriodStart,
		currentPeriodEnd:   currentPeriodEnd,
		cancelAtPeriodEnd:  cancelAtPeriodEnd,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}
