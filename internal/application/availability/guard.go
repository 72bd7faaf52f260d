package availability

import (
	"context"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// TransactionRunner runs fn inside a transaction carried by ctx.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Guard serializes check-then-insert per professional: the professional row
// is locked for the transaction, so two overlapping reservations for the same
// professional cannot both pass the availability check.
type Guard struct {
	txManager     TransactionRunner
	professionals catalog.ProfessionalRepository
	bookings      booking.Repository
	engine        *Engine
	logger        logger.Interface
}

func NewGuard(
	txManager TransactionRunner,
	professionals catalog.ProfessionalRepository,
	bookings booking.Repository,
	engine *Engine,
	log logger.Interface,
) *Guard {
	return &Guard{
		txManager:     txManager,
		professionals: professionals,
		bookings:      bookings,
		engine:        engine,
		logger:        log,
	}
}

// Reserve creates the booking described by params if its slot is free.
// It returns catalog.ErrProfessionalNotFound, booking.ErrSlotUnavailable or a
// conflict error when params.SourceRef is already booked.
func (g *Guard) Reserve(ctx context.Context, params booking.NewBookingParams) (*booking.Booking, error) {
	var created *booking.Booking

	err := g.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		found, err := g.professionals.LockForBooking(txCtx, params.ProfessionalID)
		if err != nil {
			return fmt.Errorf("failed to lock professional: %w", err)
		}
		if !found {
			return catalog.ErrProfessionalNotFound
		}

		conflicts, err := g.engine.Conflicts(txCtx, params.ProfessionalID, params.Slot)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return booking.ErrSlotUnavailable
		}

		b, err := booking.NewBooking(params)
		if err != nil {
			return err
		}
		if err := g.bookings.Create(txCtx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.Infow("booking reserved",
		"booking_id", created.ID(),
		"professional_id", created.ProfessionalID(),
		"slot", created.Slot().String(),
		"status", created.Status(),
	)
	return created, nil
}
