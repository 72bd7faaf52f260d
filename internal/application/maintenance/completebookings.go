// Package maintenance holds the periodic jobs that keep bookings and the
// webhook ledger tidy.
package maintenance

import (
	"context"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const defaultCompleteBatchSize = 200

// CompletePastBookingsUseCase marks confirmed bookings whose slot has ended as
// completed.
type CompletePastBookingsUseCase struct {
	bookings  booking.Repository
	publisher events.EventPublisher
	batchSize int
	logger    logger.Interface
}

func NewCompletePastBookingsUseCase(
	bookings booking.Repository,
	publisher events.EventPublisher,
	batchSize int,
	logger logger.Interface,
) *CompletePastBookingsUseCase {
	if batchSize <= 0 {
		batchSize = defaultCompleteBatchSize
	}
	return &CompletePastBookingsUseCase{
		bookings:  bookings,
		publisher: publisher,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Execute processes one batch and returns the number of bookings completed.
func (uc *CompletePastBookingsUseCase) Execute(ctx context.Context) (int, error) {
	ended, err := uc.bookings.ListConfirmedEndedBefore(ctx, biztime.NowUTC(), uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list ended bookings: %w", err)
	}
	if len(ended) == 0 {
		return 0, nil
	}

	completed := 0
	for _, b := range ended {
		changed, err := b.Complete()
		if err != nil {
			uc.logger.Warnw("failed to complete booking",
				"booking_id", b.ID(),
				"status", b.Status(),
				"error", err,
			)
			continue
		}
		if !changed {
			continue
		}

		if err := uc.bookings.Update(ctx, b); err != nil {
			uc.logger.Errorw("failed to update completed booking",
				"booking_id", b.ID(),
				"error", err,
			)
			continue
		}

		completed++
		if uc.publisher != nil {
			if err := uc.publisher.Publish(b.Signal(events.EventTypeBookingCompleted)); err != nil {
				uc.logger.Warnw("failed to publish signal",
					"event_type", events.EventTypeBookingCompleted,
					"booking_id", b.ID(),
					"error", err,
				)
			}
		}
	}

	return completed, nil
}
