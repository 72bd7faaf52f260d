package valueobjects

import (
	"fmt"
	"time"
)

// MinDurationMinutes is the shortest bookable service.
const MinDurationMinutes = 1

// Slot is the half-open interval [start, end) a booking occupies.
type Slot struct {
	start time.Time
	end   time.Time
}

func NewSlot(start time.Time, durationMinutes int) (Slot, error) {
	if start.IsZero() {
		return Slot{}, fmt.Errorf("slot start is required")
	}
	if durationMinutes < MinDurationMinutes {
		return Slot{}, fmt.Errorf("slot duration must be at least %d minute, got %d", MinDurationMinutes, durationMinutes)
	}
	start = start.UTC()
	return Slot{start: start, end: start.Add(time.Duration(durationMinutes) * time.Minute)}, nil
}

// ReconstructSlot rebuilds a persisted slot without validation.
func ReconstructSlot(start, end time.Time) Slot {
	return Slot{start: start.UTC(), end: end.UTC()}
}

func (s Slot) Start() time.Time { return s.start }
func (s Slot) End() time.Time   { return s.end }

func (s Slot) DurationMinutes() int {
	return int(s.end.Sub(s.start) / time.Minute)
}

// Overlaps uses half-open semantics: back-to-back slots do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return s.start.Before(other.end) && s.end.After(other.start)
}

func (s Slot) String() string {
	return fmt.Sprintf("[%s, %s)", s.start.Format(time.RFC3339), s.end.Format(time.RFC3339))
}
