package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/domain/subscription"
)

// Checkout session modes and payment statuses as reported by the provider.
const (
	CheckoutModePayment      = "payment"
	CheckoutModeSubscription = "subscription"

	CheckoutPaymentStatusPaid = "paid"
)

// CheckoutSession is the provider-neutral view of a checkout session event.
type CheckoutSession struct {
	ID             string
	Mode           string
	PaymentStatus  string
	CustomerID     string
	Customer       client.Details
	AmountTotal    int64
	Currency       string
	SubscriptionID string
	Metadata       map[string]string
}

func (s CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == CheckoutPaymentStatusPaid
}

func (s CheckoutSession) IsSubscription() bool {
	return s.Mode == CheckoutModeSubscription
}

// SubscriptionSnapshot is the provider's current record of a subscription.
type SubscriptionSnapshot struct {
	ID                 string
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

func (s SubscriptionSnapshot) ProviderState() subscription.ProviderState {
	return subscription.ProviderState{
		Status:             s.Status,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}
}

// Invoice is the provider-neutral view of an invoice event.
type Invoice struct {
	ID             string
	SubscriptionID string
	CustomerID     string
	Customer       client.Details
	AmountPaid     int64
	Currency       string
	Metadata       map[string]string
}

// ErrSubscriptionNotFound reports that the provider has no such subscription.
var ErrSubscriptionNotFound = errors.New("subscription not found at provider")

// SubscriptionFetcher retrieves subscription detail from the provider.
// Errors other than ErrSubscriptionNotFound are treated as transient.
type SubscriptionFetcher interface {
	FetchSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)
}
