// Package reconciliation applies payment-provider events to payments,
// subscriptions and bookings. Every entry point is idempotent under
// redelivery and runs in a single transaction; signals are published only
// after commit.
package reconciliation

import (
	"context"
	"errors"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/domain/payment"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/domain/subscription"
	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ClientResolver maps provider customers onto clients.
type ClientResolver interface {
	ResolveClient(ctx context.Context, externalCustomerID string, details client.Details) (*client.Client, error)
	AttachUser(ctx context.Context, c *client.Client, userID string) (int64, error)
}

// SlotReserver creates a booking after an availability check under lock.
type SlotReserver interface {
	Reserve(ctx context.Context, params booking.NewBookingParams) (*booking.Booking, error)
}

type Reconciler struct {
	txManager     TransactionRunner
	resolver      ClientResolver
	reserver      SlotReserver
	clients       client.Repository
	bookings      booking.Repository
	payments      payment.Repository
	subscriptions subscription.Repository
	services      catalog.ServiceRepository
	fetcher       SubscriptionFetcher
	publisher     events.EventPublisher
	logger        logger.Interface
}

type Dependencies struct {
	TxManager     TransactionRunner
	Resolver      ClientResolver
	Reserver      SlotReserver
	Clients       client.Repository
	Bookings      booking.Repository
	Payments      payment.Repository
	Subscriptions subscription.Repository
	Services      catalog.ServiceRepository
	Fetcher       SubscriptionFetcher
	Publisher     events.EventPublisher
}

func NewReconciler(deps Dependencies, log logger.Interface) *Reconciler {
	return &Reconciler{
		txManager:     deps.TxManager,
		resolver:      deps.Resolver,
		reserver:      deps.Reserver,
		clients:       deps.Clients,
		bookings:      deps.Bookings,
		payments:      deps.Payments,
		subscriptions: deps.Subscriptions,
		services:      deps.Services,
		fetcher:       deps.Fetcher,
		publisher:     deps.Publisher,
		logger:        log,
	}
}

// unit collects the signals of one event so they can be published after the
// transaction commits.
type unit struct {
	signals []events.DomainEvent
}

func (u *unit) emit(e events.DomainEvent) {
	u.signals = append(u.signals, e)
}

// run executes fn in a transaction and publishes its signals on success.
func (r *Reconciler) run(ctx context.Context, log logger.Interface, fn func(ctx context.Context, u *unit) (Result, error)) (Result, error) {
	u := &unit{}
	var result Result

	err := r.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = fn(txCtx, u)
		return err
	})
	if err != nil {
		log.Errorw("event processing failed, will be retried", "error", err)
		return Result{}, err
	}

	r.publish(log, u.signals)
	log.Infow("event reconciled", "outcome", result.Outcome, "reason", result.Reason)
	return result, nil
}

func (r *Reconciler) publish(log logger.Interface, signals []events.DomainEvent) {
	if r.publisher == nil {
		return
	}
	for _, s := range signals {
		if err := r.publisher.Publish(s); err != nil {
			log.Warnw("failed to publish signal",
				"event_type", s.GetEventType(),
				"aggregate_id", s.GetAggregateID(),
				"error", err,
			)
		}
	}
}

func subscriptionSignal(s *subscription.Subscription, previous string) events.DomainEvent {
	return events.SubscriptionStatusChangedEvent{
		BaseEvent:      events.NewBaseEvent(s.ID(), events.EventTypeSubscriptionStatusChanged),
		ExternalID:     s.ExternalID(),
		ClientID:       s.ClientID(),
		ServiceID:      s.ServiceID(),
		PreviousStatus: previous,
		Status:         s.Status(),
	}
}

// placeBooking reserves a slot and translates reservation failures into
// results. A nil Result pointer means the booking was created.
func (r *Reconciler) placeBooking(ctx context.Context, log logger.Interface, u *unit, params booking.NewBookingParams) (*booking.Booking, *Result, error) {
	b, err := r.reserver.Reserve(ctx, params)
	switch {
	case err == nil:
		u.emit(b.Signal(events.EventTypeBookingCreated))
		log.Infow("booking created",
			"booking_id", b.ID(),
			"status", b.Status(),
			"slot", b.Slot().String(),
		)
		return b, nil, nil
	case errors.Is(err, booking.ErrSlotUnavailable):
		log.Warnw("booking skipped: slot unavailable",
			"professional_id", params.ProfessionalID,
			"slot", params.Slot.String(),
		)
		res := skipped("slot unavailable")
		return nil, &res, nil
	case errors.Is(err, catalog.ErrProfessionalNotFound):
		log.Warnw("booking skipped: professional not found", "professional_id", params.ProfessionalID)
		res := skipped("professional not found")
		return nil, &res, nil
	case apperrors.IsConflictError(err):
		log.Infow("booking already exists for source", "source_ref", params.SourceRef)
		res := duplicate("booking already exists")
		return nil, &res, nil
	case errors.Is(err, booking.ErrInvalidDuration):
		res := skipped("invalid booking duration")
		return nil, &res, nil
	default:
		return nil, nil, err
	}
}

// linkUser attaches userID to c when the event carries one.
func (r *Reconciler) linkUser(ctx context.Context, c *client.Client, userID string) (string, error) {
	if c == nil {
		return "", nil
	}
	if userID != "" {
		if _, err := r.resolver.AttachUser(ctx, c, userID); err != nil {
			return "", err
		}
	}
	if c.UserID() != nil {
		return *c.UserID(), nil
	}
	return "", nil
}
