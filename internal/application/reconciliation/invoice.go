package reconciliation

import (
	"context"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	bookingvo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

func (r *Reconciler) invoiceLogger(kind string, inv Invoice) logger.Interface {
	return r.logger.With(
		"event_kind", kind,
		"invoice_id", inv.ID,
		"subscription_id", inv.SubscriptionID,
		"customer_id", inv.CustomerID,
	)
}

// HandleInvoicePaymentFailed marks the invoice's subscription past due.
func (r *Reconciler) HandleInvoicePaymentFailed(ctx context.Context, inv Invoice) (Result, error) {
	log := r.invoiceLogger("invoice.payment_failed", inv)

	return r.run(ctx, log, func(ctx context.Context, u *unit) (Result, error) {
		sub, res, err := r.loadSubscription(ctx, log, inv.SubscriptionID)
		if err != nil || res != nil {
			return derefResult(res), err
		}

		previous := sub.Status()
		if !sub.MarkPastDue() {
			return duplicate("subscription already past due"), nil
		}
		if err := r.subscriptions.Update(ctx, sub); err != nil {
			return Result{}, fmt.Errorf("failed to update subscription: %w", err)
		}
		u.emit(subscriptionSignal(sub, previous))
		return applied("subscription marked past due"), nil
	})
}

// HandleInvoicePaymentSucceeded books the renewal slot named by the invoice
// metadata. At most one booking exists per invoice and per subscription
// start time.
func (r *Reconciler) HandleInvoicePaymentSucceeded(ctx context.Context, inv Invoice) (Result, error) {
	log := r.invoiceLogger("invoice.payment_succeeded", inv)

	md, err := ParseMetadata(inv.Metadata)
	if err != nil {
		log.Warnw("invoice skipped: unreadable metadata", "error", err)
		return skipped("unreadable metadata"), nil
	}
	log = log.With(md.LogFields()...)

	return r.run(ctx, log, func(ctx context.Context, u *unit) (Result, error) {
		sub, res, err := r.loadSubscription(ctx, log, inv.SubscriptionID)
		if err != nil || res != nil {
			return derefResult(res), err
		}
		log := log.With("subscription_ref", sub.ID(), "client_id", sub.ClientID())

		// A renewal always books the subscription's own service.
		if md.ServiceID != "" && md.ServiceID != sub.ServiceID() {
			log.Warnw("invoice service differs from subscription, using subscription service",
				"subscription_service_id", sub.ServiceID(),
			)
		}
		md.ServiceID = ""
		req, err := md.BookingRequest(sub.ServiceID())
		if err != nil {
			log.Warnw("invoice skipped: metadata incomplete", "error", err)
			return skipped("metadata incomplete"), nil
		}

		sourceRef := booking.InvoiceSourceRef(inv.ID)
		existing, err := r.bookings.GetBySourceRef(ctx, sourceRef)
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up booking: %w", err)
		}
		if existing != nil {
			return duplicate("invoice already booked"), nil
		}
		taken, err := r.bookings.ExistsForSubscriptionAt(ctx, sub.ID(), req.StartsAt)
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up subscription bookings: %w", err)
		}
		if taken {
			log.Infow("renewal slot already booked for subscription", "starts_at", req.StartsAt)
			return duplicate("subscription already booked at this time"), nil
		}

		svc, err := r.services.GetByID(ctx, req.ServiceID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up service: %w", err)
		}
		if svc == nil {
			log.Warnw("invoice skipped: service not found", "service_id", req.ServiceID)
			return skipped("service not found"), nil
		}
		slot, err := bookingvo.NewSlot(req.StartsAt, svc.DurationMinutes())
		if err != nil {
			return skipped("invalid slot"), nil
		}

		userID := md.UserID
		if userID == "" {
			c, err := r.clients.GetByID(ctx, sub.ClientID())
			if err != nil {
				return Result{}, fmt.Errorf("failed to look up client: %w", err)
			}
			if c != nil && c.UserID() != nil {
				userID = *c.UserID()
			}
		}

		_, res, err = r.placeBooking(ctx, log, u, booking.NewBookingParams{
			ProfessionalID: req.ProfessionalID,
			ServiceID:      svc.ID(),
			ClientID:       sub.ClientID(),
			UserID:         userID,
			Slot:           slot,
			Status:         bookingvo.BookingStatusConfirmed,
			SubscriptionID: sub.ID(),
			SourceRef:      sourceRef,
		})
		if err != nil || res != nil {
			return derefResult(res), err
		}
		return applied("renewal booking created"), nil
	})
}

