package booking

import "errors"

var (
	// ErrSlotUnavailable is returned when the requested interval overlaps a
	// pending or confirmed booking of the same professional.
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrInvalidDuration   = errors.New("booking duration must be at least one minute")
)
