package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"

	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// Reconciler is the set of entry points the router dispatches to.
type Reconciler interface {
	HandleCheckoutCompleted(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error)
	HandleAsyncPaymentSucceeded(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error)
	HandleAsyncPaymentFailed(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error)
	HandleCheckoutExpired(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error)
	HandleSubscriptionUpdated(ctx context.Context, snapshot reconciliation.SubscriptionSnapshot) (reconciliation.Result, error)
	HandleSubscriptionDeleted(ctx context.Context, snapshot reconciliation.SubscriptionSnapshot) (reconciliation.Result, error)
	HandleInvoicePaymentSucceeded(ctx context.Context, inv reconciliation.Invoice) (reconciliation.Result, error)
	HandleInvoicePaymentFailed(ctx context.Context, inv reconciliation.Invoice) (reconciliation.Result, error)
}

// Router decodes Stripe data objects into provider-neutral payloads.
type Router struct {
	reconciler Reconciler
	logger     logger.Interface
}

func NewRouter(reconciler Reconciler, logger logger.Interface) *Router {
	return &Router{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Route implements reconciliation.EventRouter. payload is the event's data
// object. An object that does not decode is skipped; it was signed by Stripe
// and will not change on redelivery.
func (r *Router) Route(ctx context.Context, eventType string, payload []byte) (reconciliation.Result, error) {
	switch stripeapi.EventType(eventType) {
	case stripeapi.EventTypeCheckoutSessionCompleted,
		stripeapi.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripeapi.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripeapi.EventTypeCheckoutSessionExpired:
		session, err := decodeCheckoutSession(payload)
		if err != nil {
			return r.malformed(eventType, err), nil
		}
		return r.routeCheckout(ctx, stripeapi.EventType(eventType), session)

	case stripeapi.EventTypeCustomerSubscriptionUpdated,
		stripeapi.EventTypeCustomerSubscriptionDeleted:
		var sub stripeapi.Subscription
		if err := json.Unmarshal(payload, &sub); err != nil {
			return r.malformed(eventType, err), nil
		}
		snapshot := snapshotFromSubscription(&sub)
		if stripeapi.EventType(eventType) == stripeapi.EventTypeCustomerSubscriptionDeleted {
			return r.reconciler.HandleSubscriptionDeleted(ctx, *snapshot)
		}
		return r.reconciler.HandleSubscriptionUpdated(ctx, *snapshot)

	case stripeapi.EventTypeInvoicePaymentSucceeded,
		stripeapi.EventTypeInvoicePaymentFailed:
		inv, err := decodeInvoice(payload)
		if err != nil {
			return r.malformed(eventType, err), nil
		}
		if stripeapi.EventType(eventType) == stripeapi.EventTypeInvoicePaymentFailed {
			return r.reconciler.HandleInvoicePaymentFailed(ctx, inv)
		}
		return r.reconciler.HandleInvoicePaymentSucceeded(ctx, inv)
	}

	r.logger.Debugw("stripe event ignored", "event_type", eventType)
	return reconciliation.Ignore("unhandled event type"), nil
}

func (r *Router) routeCheckout(ctx context.Context, eventType stripeapi.EventType, s reconciliation.CheckoutSession) (reconciliation.Result, error) {
	switch eventType {
	case stripeapi.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return r.reconciler.HandleAsyncPaymentSucceeded(ctx, s)
	case stripeapi.EventTypeCheckoutSessionAsyncPaymentFailed:
		return r.reconciler.HandleAsyncPaymentFailed(ctx, s)
	case stripeapi.EventTypeCheckoutSessionExpired:
		return r.reconciler.HandleCheckoutExpired(ctx, s)
	default:
		return r.reconciler.HandleCheckoutCompleted(ctx, s)
	}
}

func (r *Router) malformed(eventType string, err error) reconciliation.Result {
	r.logger.Warnw("stripe event skipped: malformed data object",
		"event_type", eventType,
		"error", err,
	)
	return reconciliation.Ignore("malformed payload")
}

func decodeCheckoutSession(raw []byte) (reconciliation.CheckoutSession, error) {
	var s stripeapi.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return reconciliation.CheckoutSession{}, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	if s.ID == "" {
		return reconciliation.CheckoutSession{}, fmt.Errorf("checkout session without id")
	}

	out := reconciliation.CheckoutSession{
		ID:            s.ID,
		Mode:          string(s.Mode),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.CustomerDetails != nil {
		out.Customer = client.Details{
			Name:  s.CustomerDetails.Name,
			Email: s.CustomerDetails.Email,
			Phone: s.CustomerDetails.Phone,
		}
	}
	if out.Customer.Email == "" {
		out.Customer.Email = s.CustomerEmail
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out, nil
}

// decodeInvoice prefers the invoice's own metadata and falls back to the
// metadata Stripe copies from the subscription.
func decodeInvoice(raw []byte) (reconciliation.Invoice, error) {
	var inv stripeapi.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return reconciliation.Invoice{}, fmt.Errorf("failed to decode invoice: %w", err)
	}
	if inv.ID == "" {
		return reconciliation.Invoice{}, fmt.Errorf("invoice without id")
	}

	metadata := map[string]string{}
	if inv.SubscriptionDetails != nil {
		for k, v := range inv.SubscriptionDetails.Metadata {
			metadata[k] = v
		}
	}
	for k, v := range inv.Metadata {
		metadata[k] = v
	}

	out := reconciliation.Invoice{
		ID:         inv.ID,
		AmountPaid: inv.AmountPaid,
		Currency:   string(inv.Currency),
		Customer: client.Details{
			Name:  inv.CustomerName,
			Email: inv.CustomerEmail,
			Phone: inv.CustomerPhone,
		},
		Metadata: metadata,
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	return out, nil
}

func snapshotFromSubscription(s *stripeapi.Subscription) *reconciliation.SubscriptionSnapshot {
	return &reconciliation.SubscriptionSnapshot{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: unixTime(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(s.CurrentPeriodEnd),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		Metadata:           s.Metadata,
	}
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
