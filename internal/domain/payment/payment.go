package payment

import (
	"fmt"
	"time"

	vo "github.com/bookwell-inc/bookwell/internal/domain/payment/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/id"
)

// Payment records one charge attempt. externalID is the provider's checkout
// session id and is unique.
type Payment struct {
	id          string
	externalID  string
	clientID    *string
	amountCents int64
	currency    string
	status      vo.PaymentStatus
	paymentType vo.PaymentType
	paidAt      *time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time
}

func NewPayment(externalID, clientID string, amountCents int64, currency string, paymentType vo.PaymentType) (*Payment, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external payment ID is required")
	}
	if !paymentType.IsValid() {
		return nil, fmt.Errorf("invalid payment type %q", paymentType)
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	now := biztime.NowUTC()
	p := &Payment{
		id:          id.New(id.PrefixPayment),
		externalID:  externalID,
		amountCents: amountCents,
		currency:    currency,
		status:      vo.PaymentStatusPending,
		paymentType: paymentType,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
	if clientID != "" {
		p.clientID = &clientID
	}
	return p, nil
}

// MarkAsPaid is one-way; a paid payment never returns to pending.
func (p *Payment) MarkAsPaid() bool {
	if p.status.IsPaid() {
		return false
	}
	now := biztime.NowUTC()
	p.status = vo.PaymentStatusPaid
	p.paidAt = &now
	p.updatedAt = now
	p.version++
	return true
}

func (p *Payment) ID() string               { return p.id }
func (p *Payment) ExternalID() string       { return p.externalID }
func (p *Payment) ClientID() *string        { return p.clientID }
func (p *Payment) AmountCents() int64       { return p.amountCents }
func (p *Payment) Currency() string         { return p.currency }
func (p *Payment) Status() vo.PaymentStatus { return p.status }
func (p *Payment) Type() vo.PaymentType     { return p.paymentType }
func (p *Payment) PaidAt() *time.Time       { return p.paidAt }
func (p *Payment) Version() int             { return p.version }
func (p *Payment) CreatedAt() time.Time     { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time     { return p.updatedAt }
func (p *Payment) IsPaid() bool             { return p.status.IsPaid() }

func ReconstructPayment(
	paymentID, externalID string,
	clientID *string,
	amountCents int64,
	currency string,
	status vo.PaymentStatus,
	paymentType vo.PaymentType,
	paidAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:          paymentID,
		externalID:  externalID,
		clientID:    clientID,
		amountCents: amountCents,
		currency:    currency,
		status:      status,
		paymentType: paymentType,
		paidAt:      paidAt,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}
