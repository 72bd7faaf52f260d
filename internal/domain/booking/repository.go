package booking

import (
	"context"
	"time"

	vo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
)

// Repository persists bookings. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error)
	GetBySourceRef(ctx context.Context, sourceRef string) (*Booking, error)
	// FindOverlapping returns bookings of professionalID in one of statuses
	// whose interval intersects [start, end).
	FindOverlapping(ctx context.Context, professionalID string, start, end time.Time, statuses []vo.BookingStatus) ([]*Booking, error)
	ExistsForSubscriptionAt(ctx context.Context, subscriptionID string, start time.Time) (bool, error)
	// AssignUserToClientBookings sets userID on the client's bookings that have
	// none and returns how many changed.
	AssignUserToClientBookings(ctx context.Context, clientID, userID string) (int64, error)
	ListConfirmedEndedBefore(ctx context.Context, before time.Time, limit int) ([]*Booking, error)
}
