package booking

import (
	"fmt"
	"time"

	vo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/id"
)

// Booking is one occupation of a professional's time.
type Booking struct {
	id             string
	professionalID string
	serviceID      string
	clientID       *string
	userID         *string
	slot           vo.Slot
	status         vo.BookingStatus
	paymentID      *string
	subscriptionID *string
	// sourceRef is the provider object that produced this booking
	// ("checkout:<session>" or "invoice:<invoice>"); unique when set.
	sourceRef *string

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams carries what is needed to place a booking.
type NewBookingParams struct {
	ProfessionalID string
	ServiceID      string
	ClientID       string
	UserID         string
	Slot           vo.Slot
	Status         vo.BookingStatus
	PaymentID      string
	SubscriptionID string
	SourceRef      string
}

func NewBooking(p NewBookingParams) (*Booking, error) {
	if p.ProfessionalID == "" {
		return nil, fmt.Errorf("professional ID is required")
	}
	if p.ServiceID == "" {
		return nil, fmt.Errorf("service ID is required")
	}
	if p.Slot.DurationMinutes() < vo.MinDurationMinutes {
		return nil, ErrInvalidDuration
	}
	status := p.Status
	if status == "" {
		status = vo.BookingStatusPending
	}
	if !status.OccupiesSlot() {
		return nil, fmt.Errorf("new booking cannot start as %s", status)
	}

	now := biztime.NowUTC()
	return &Booking{
		id:             id.New(id.PrefixBooking),
		professionalID: p.ProfessionalID,
		serviceID:      p.ServiceID,
		clientID:       optional(p.ClientID),
		userID:         optional(p.UserID),
		slot:           p.Slot,
		status:         status,
		paymentID:      optional(p.PaymentID),
		subscriptionID: optional(p.SubscriptionID),
		sourceRef:      optional(p.SourceRef),
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (b *Booking) transition(next vo.BookingStatus) (bool, error) {
	if b.status == next {
		return false, nil
	}
	if !b.status.CanTransitionTo(next) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, next)
	}
	b.status = next
	b.updatedAt = biztime.NowUTC()
	b.version++
	return true, nil
}

// Confirm moves a pending booking to confirmed. Confirming a confirmed booking
// reports changed=false.
func (b *Booking) Confirm() (changed bool, err error) {
	return b.transition(vo.BookingStatusConfirmed)
}

// Cancel frees the slot. Cancelling twice is a no-op.
func (b *Booking) Cancel() (changed bool, err error) {
	return b.transition(vo.BookingStatusCancelled)
}

func (b *Booking) Complete() (changed bool, err error) {
	return b.transition(vo.BookingStatusCompleted)
}

// DetachPayment clears the payment reference ahead of the payment's removal.
func (b *Booking) DetachPayment() {
	if b.paymentID == nil {
		return
	}
	b.paymentID = nil
	b.updatedAt = biztime.NowUTC()
	b.version++
}

// AssignUser links an account to the booking if it has none.
func (b *Booking) AssignUser(userID string) bool {
	if userID == "" || b.userID != nil {
		return false
	}
	b.userID = &userID
	b.updatedAt = biztime.NowUTC()
	b.version++
	return true
}

func (b *Booking) ID() string               { return b.id }
func (b *Booking) ProfessionalID() string   { return b.professionalID }
func (b *Booking) ServiceID() string        { return b.serviceID }
func (b *Booking) ClientID() *string        { return b.clientID }
func (b *Booking) UserID() *string          { return b.userID }
func (b *Booking) Slot() vo.Slot            { return b.slot }
func (b *Booking) StartsAt() time.Time      { return b.slot.Start() }
func (b *Booking) EndsAt() time.Time        { return b.slot.End() }
func (b *Booking) Status() vo.BookingStatus { return b.status }
func (b *Booking) PaymentID() *string       { return b.paymentID }
func (b *Booking) SubscriptionID() *string  { return b.subscriptionID }
func (b *Booking) SourceRef() *string       { return b.sourceRef }
func (b *Booking) Version() int             { return b.version }
func (b *Booking) CreatedAt() time.Time     { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time     { return b.updatedAt }

func (b *Booking) IsPending() bool {
	return b.status == vo.BookingStatusPending
}

// ReconstructBooking rebuilds a persisted booking.
func ReconstructBooking(
	bookingID, professionalID, serviceID string,
	clientID, userID *string,
	slot vo.Slot,
	status vo.BookingStatus,
	paymentID, subscriptionID, sourceRef *string,
	version int,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             bookingID,
		professionalID: professionalID,
		serviceID:      serviceID,
		clientID:       clientID,
		userID:         userID,
		slot:           slot,
		status:         status,
		paymentID:      paymentID,
		subscriptionID: subscriptionID,
		sourceRef:      sourceRef,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// CheckoutSourceRef and InvoiceSourceRef build the per-provider-object
// idempotency keys stored in sourceRef.
func CheckoutSourceRef(sessionID string) string { return "checkout:" + sessionID }
func InvoiceSourceRef(invoiceID string) string  { return "invoice:" + invoiceID }
