package webhook

import (
	"context"
	"time"
)

type Repository interface {
	// Record inserts e unless (provider, eventID) is already recorded, in which
	// case the stored entry is returned with created=false. Each call counts
	// as one delivery attempt.
	Record(ctx context.Context, e *Event) (stored *Event, created bool, err error)
	MarkProcessed(ctx context.Context, id, outcome string) error
	MarkFailed(ctx context.Context, id, reason string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
