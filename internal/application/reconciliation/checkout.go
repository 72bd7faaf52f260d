package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	bookingvo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/domain/payment"
	paymentvo "github.com/bookwell-inc/bookwell/internal/domain/payment/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/domain/subscription"
	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

func (r *Reconciler) checkoutLogger(kind string, s CheckoutSession) logger.Interface {
	return r.logger.With(
		"event_kind", kind,
		"session_id", s.ID,
		"mode", s.Mode,
		"payment_status", s.PaymentStatus,
		"customer_id", s.CustomerID,
		"subscription_id", s.SubscriptionID,
	)
}

// HandleCheckoutCompleted records the payment of a finished checkout, creates
// the subscription for subscription-mode sessions and books the requested
// slot. Paid sessions produce confirmed bookings, unpaid ones pending bookings
// that later async events confirm or cancel.
func (r *Reconciler) HandleCheckoutCompleted(ctx context.Context, s CheckoutSession) (Result, error) {
	log := r.checkoutLogger("checkout.completed", s)

	md, err := ParseMetadata(s.Metadata)
	if err != nil {
		log.Warnw("checkout skipped: unreadable metadata", "error", err)
		return skipped("unreadable metadata"), nil
	}
	log = log.With(md.LogFields()...)

	var snapshot *SubscriptionSnapshot
	if s.IsSubscription() {
		if s.SubscriptionID == "" {
			log.Warnw("checkout skipped: subscription session without subscription")
			return skipped("subscription not retrievable"), nil
		}
		snapshot, err = r.fetcher.FetchSubscription(ctx, s.SubscriptionID)
		if errors.Is(err, ErrSubscriptionNotFound) {
			log.Warnw("checkout skipped: subscription unknown to provider")
			return skipped("subscription not retrievable"), nil
		}
		if err != nil {
			log.Errorw("failed to fetch subscription detail", "error", err)
			return Result{}, fmt.Errorf("failed to fetch subscription %s: %w", s.SubscriptionID, err)
		}
	}

	return r.run(ctx, log, func(ctx context.Context, u *unit) (Result, error) {
		existing, err := r.payments.GetByExternalID(ctx, s.ID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up payment: %w", err)
		}
		if existing != nil {
			return r.replayCheckout(ctx, log, u, s, existing)
		}
		return r.completeCheckout(ctx, log, u, s, md, snapshot)
	})
}

func (r *Reconciler) completeCheckout(
	ctx context.Context,
	log logger.Interface,
	u *unit,
	s CheckoutSession,
	md Metadata,
	snapshot *SubscriptionSnapshot,
) (Result, error) {
	c, err := r.resolver.ResolveClient(ctx, s.CustomerID, s.Customer)
	if err != nil {
		return Result{}, err
	}

	clientID := ""
	if c != nil {
		clientID = c.ID()
	}
	paymentType := paymentvo.PaymentTypeOneTime
	if s.IsSubscription() {
		paymentType = paymentvo.PaymentTypeSubscription
	}

	p, err := payment.NewPayment(s.ID, clientID, s.AmountTotal, s.Currency, paymentType)
	if err != nil {
		log.Warnw("checkout skipped: invalid payment", "error", err)
		return skipped(err.Error()), nil
	}
	if s.IsPaid() {
		p.MarkAsPaid()
	}
	if err := r.payments.Create(ctx, p); err != nil {
		if apperrors.IsConflictError(err) {
			log.Infow("payment already recorded by a concurrent delivery")
			return duplicate("payment already recorded"), nil
		}
		return Result{}, fmt.Errorf("failed to create payment: %w", err)
	}
	log = log.With("payment_id", p.ID())
	log.Infow("payment recorded", "status", p.Status(), "amount", p.AmountCents())

	if c == nil {
		log.Warnw("booking skipped: client could not be resolved")
		return partial("client unresolved"), nil
	}
	log = log.With("client_id", c.ID())

	userID, err := r.linkUser(ctx, c, md.UserID)
	if err != nil {
		return Result{}, err
	}

	fallbackServiceID := ""
	if s.IsSubscription() {
		sub, reason, err := r.ensureSubscription(ctx, log, u, c, md, p, snapshot)
		if err != nil {
			return Result{}, err
		}
		if sub == nil {
			return partial(reason), nil
		}
		fallbackServiceID = sub.ServiceID()
		if !md.HasSlot() {
			return applied("subscription created without initial booking"), nil
		}
		return r.bookFromMetadata(ctx, log, u, md, fallbackServiceID, booking.NewBookingParams{
			ClientID:       c.ID(),
			UserID:         userID,
			PaymentID:      p.ID(),
			SubscriptionID: sub.ID(),
			SourceRef:      booking.CheckoutSourceRef(s.ID),
			Status:         statusForPayment(p),
		})
	}

	return r.bookFromMetadata(ctx, log, u, md, fallbackServiceID, booking.NewBookingParams{
		ClientID:  c.ID(),
		UserID:    userID,
		PaymentID: p.ID(),
		SourceRef: booking.CheckoutSourceRef(s.ID),
		Status:    statusForPayment(p),
	})
}

func statusForPayment(p *payment.Payment) bookingvo.BookingStatus {
	if p.IsPaid() {
		return bookingvo.BookingStatusConfirmed
	}
	return bookingvo.BookingStatusPending
}

// partial is the result of an event that recorded its payment but could not
// go on to book.
func partial(reason string) Result {
	return applied("payment recorded; booking skipped: " + reason)
}

// bookFromMetadata fills params from the metadata bag and the service catalog
// and places the booking.
func (r *Reconciler) bookFromMetadata(
	ctx context.Context,
	log logger.Interface,
	u *unit,
	md Metadata,
	fallbackServiceID string,
	params booking.NewBookingParams,
) (Result, error) {
	req, err := md.BookingRequest(fallbackServiceID)
	if err != nil {
		log.Warnw("booking skipped: metadata incomplete", "error", err)
		return partial("metadata incomplete"), nil
	}

	svc, err := r.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to look up service: %w", err)
	}
	if svc == nil {
		log.Warnw("booking skipped: service not found", "service_id", req.ServiceID)
		return partial("service not found"), nil
	}

	slot, err := bookingvo.NewSlot(req.StartsAt, svc.DurationMinutes())
	if err != nil {
		log.Warnw("booking skipped: invalid slot", "error", err)
		return partial("invalid slot"), nil
	}

	params.ProfessionalID = req.ProfessionalID
	params.ServiceID = svc.ID()
	params.Slot = slot

	_, res, err := r.placeBooking(ctx, log, u, params)
	switch {
	case err != nil:
		return Result{}, err
	case res == nil:
		return applied("booking created"), nil
	case res.Outcome == OutcomeDuplicate:
		return *res, nil
	default:
		return partial(res.Reason), nil
	}
}

// ensureSubscription returns the subscription for snapshot, creating it once.
// A nil subscription comes with the reason it could not be created.
func (r *Reconciler) ensureSubscription(
	ctx context.Context,
	log logger.Interface,
	u *unit,
	c *client.Client,
	md Metadata,
	p *payment.Payment,
	snapshot *SubscriptionSnapshot,
) (*subscription.Subscription, string, error) {
	existing, err := r.subscriptions.GetByExternalID(ctx, snapshot.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up subscription: %w", err)
	}
	if existing != nil {
		log.Infow("subscription already recorded", "subscription_ref", existing.ID())
		return existing, "", nil
	}

	serviceID := md.ServiceID
	if serviceID == "" {
		subMeta, _ := ParseMetadata(snapshot.Metadata)
		serviceID = subMeta.ServiceID
	}
	if serviceID == "" {
		log.Warnw("subscription skipped: no service in metadata")
		return nil, "subscription service unknown", nil
	}
	svc, err := r.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up service: %w", err)
	}
	if svc == nil {
		log.Warnw("subscription skipped: service not found", "service_id", serviceID)
		return nil, "service not found", nil
	}

	sub, err := subscription.NewSubscription(snapshot.ID, c.ID(), svc.ID(), p.ID(), snapshot.ProviderState())
	if err != nil {
		log.Warnw("subscription skipped: invalid provider data", "error", err)
		return nil, "invalid subscription", nil
	}
	if err := r.subscriptions.Create(ctx, sub); err != nil {
		if !apperrors.IsConflictError(err) {
			return nil, "", fmt.Errorf("failed to create subscription: %w", err)
		}
		winner, err := r.subscriptions.GetByExternalIDForShare(ctx, snapshot.ID)
		if err != nil || winner == nil {
			return nil, "", fmt.Errorf("failed to re-read subscription %s after conflict: %w", snapshot.ID, err)
		}
		return winner, "", nil
	}

	u.emit(subscriptionSignal(sub, ""))
	log.Infow("subscription created", "subscription_ref", sub.ID(), "status", sub.Status())
	return sub, "", nil
}

// replayCheckout handles a checkout whose payment already exists: it only
// moves the payment and its booking forward.
func (r *Reconciler) replayCheckout(ctx context.Context, log logger.Interface, u *unit, s CheckoutSession, p *payment.Payment) (Result, error) {
	log = log.With("payment_id", p.ID())
	changed := false

	if s.IsPaid() && p.MarkAsPaid() {
		if err := r.payments.Update(ctx, p); err != nil {
			return Result{}, fmt.Errorf("failed to update payment: %w", err)
		}
		changed = true
	}

	if p.IsPaid() {
		confirmed, err := r.confirmLinkedBooking(ctx, log, u, p)
		if err != nil {
			return Result{}, err
		}
		changed = changed || confirmed
	}

	if !changed {
		return duplicate("checkout already processed"), nil
	}
	return applied("payment marked paid"), nil
}

func (r *Reconciler) confirmLinkedBooking(ctx context.Context, log logger.Interface, u *unit, p *payment.Payment) (bool, error) {
	b, err := r.bookings.GetByPaymentID(ctx, p.ID())
	if err != nil {
		return false, fmt.Errorf("failed to look up booking: %w", err)
	}
	if b == nil || !b.IsPending() {
		return false, nil
	}
	if _, err := b.Confirm(); err != nil {
		return false, nil
	}
	if err := r.bookings.Update(ctx, b); err != nil {
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}
	u.emit(b.Signal(events.EventTypeBookingConfirmed))
	log.Infow("booking confirmed", "booking_id", b.ID())
	return true, nil
}

// HandleAsyncPaymentSucceeded marks a delayed payment as paid and confirms
// its pending booking.
func (r *Reconciler) HandleAsyncPaymentSucceeded(ctx context.Context, s CheckoutSession) (Result, error) {
	log := r.checkoutLogger("checkout.async_payment_succeeded", s)

	return r.run(ctx, log, func(ctx context.Context, u *unit) (Result, error) {
		p, err := r.payments.GetByExternalID(ctx, s.ID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up payment: %w", err)
		}
		if p == nil {
			log.Warnw("async success skipped: payment not found")
			return skipped("payment not found"), nil
		}
		s.PaymentStatus = CheckoutPaymentStatusPaid
		return r.replayCheckout(ctx, log, u, s, p)
	})
}

// HandleAsyncPaymentFailed cancels the booking tied to a failed delayed
// payment. Cancelling an already cancelled booking is a no-op.
func (r *Reconciler) HandleAsyncPaymentFailed(ctx context.Context, s CheckoutSession) (Result, error) {
	log := r.checkoutLogger("checkout.async_payment_failed", s)

	return r.run(ctx, log, func(ctx context.Context, u *unit) (Result, error) {
		b, p, res, err := r.linkedBooking(ctx, log, s.ID)
		if err != nil || res != nil {
			return derefResult(res), err
		}
		log = log.With("payment_id", p.ID(), "booking_id", b.ID())

		changed, err := b.Cancel()
		if err != nil {
			log.Warnw("async failure skipped: booking cannot be cancelled", "status", b.Status(), "error", err)
			return skipped("booking not cancellable"), nil
		}
		if !changed {
			return duplicate("booking already cancelled"), nil
		}
		if err := r.bookings.Update(ctx, b); err != nil {
			return Result{}, fmt.Errorf("failed to cancel booking: %w", err)
		}
		u.emit(b.Signal(events.EventTypeBookingCancelled))
		return applied("booking cancelled"), nil
	})
}

// HandleCheckoutExpired releases the slot held by an abandoned checkout: a
// pending booking is cancelled and its payment deleted. Confirmed bookings
// are never touched.
func (r *Reconciler) HandleCheckoutExpired(ctx context.Context, s CheckoutSession) (Result, error) {
	log := r.checkoutLogger("checkout.expired", s)

	return r.run(ctx, log, func(ctx context.Context, u *unit) (Result, error) {
		b, p, res, err := r.linkedBooking(ctx, log, s.ID)
		if err != nil || res != nil {
			return derefResult(res), err
		}
		log = log.With("payment_id", p.ID(), "booking_id", b.ID())

		if !b.IsPending() {
			log.Infow("expiry ignored: booking not pending", "status", b.Status())
			return skipped("booking not pending"), nil
		}

		if _, err := b.Cancel(); err != nil {
			return skipped("booking not cancellable"), nil
		}
		b.DetachPayment()
		if err := r.bookings.Update(ctx, b); err != nil {
			return Result{}, fmt.Errorf("failed to cancel booking: %w", err)
		}
		if err := r.payments.Delete(ctx, p.ID()); err != nil {
			return Result{}, fmt.Errorf("failed to delete payment: %w", err)
		}
		u.emit(b.Signal(events.EventTypeBookingCancelled))
		return applied("pending booking cancelled and payment removed"), nil
	})
}

// linkedBooking loads the payment for sessionID and its booking. When either
// is missing it returns the skip result instead.
func (r *Reconciler) linkedBooking(ctx context.Context, log logger.Interface, sessionID string) (*booking.Booking, *payment.Payment, *Result, error) {
	p, err := r.payments.GetByExternalID(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	if p == nil {
		log.Infow("event skipped: payment not found")
		res := skipped("payment not found")
		return nil, nil, &res, nil
	}

	b, err := r.bookings.GetByPaymentID(ctx, p.ID())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to look up booking: %w", err)
	}
	if b == nil {
		log.Infow("event skipped: no booking for payment", "payment_id", p.ID())
		res := skipped("no linked booking")
		return nil, nil, &res, nil
	}
	return b, p, nil, nil
}

func derefResult(res *Result) Result {
	if res == nil {
		return Result{}
	}
	return *res
}
