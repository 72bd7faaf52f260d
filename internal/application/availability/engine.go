// Package availability decides whether a professional's time can be booked
// and places bookings under a per-professional lock.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	vo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// Engine answers availability questions from stored bookings. It takes no
// locks; use Guard to check and insert atomically.
type Engine struct {
	bookings booking.Repository
	logger   logger.Interface
}

func NewEngine(bookings booking.Repository, log logger.Interface) *Engine {
	return &Engine{bookings: bookings, logger: log}
}

// IsSlotAvailable reports whether [start, start+duration) is free of pending
// and confirmed bookings for professionalID.
func (e *Engine) IsSlotAvailable(ctx context.Context, professionalID string, start time.Time, durationMinutes int) (bool, error) {
	slot, err := vo.NewSlot(start, durationMinutes)
	if err != nil {
		return false, fmt.Errorf("%w: %v", booking.ErrInvalidDuration, err)
	}
	conflicts, err := e.Conflicts(ctx, professionalID, slot)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Conflicts returns the bookings that keep slot from being available.
func (e *Engine) Conflicts(ctx context.Context, professionalID string, slot vo.Slot) ([]*booking.Booking, error) {
	existing, err := e.bookings.FindOverlapping(ctx, professionalID, slot.Start(), slot.End(), vo.SlotOccupyingStatuses())
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}

	// The store filters already; re-check so a loose query can never admit
	// a double booking.
	conflicts := existing[:0]
	for _, b := range existing {
		if b.Status().OccupiesSlot() && b.Slot().Overlaps(slot) {
			conflicts = append(conflicts, b)
		}
	}

	if len(conflicts) > 0 {
		e.logger.Debugw("slot has conflicts",
			"professional_id", professionalID,
			"slot", slot.String(),
			"conflicts", len(conflicts),
		)
	}
	return conflicts, nil
}
