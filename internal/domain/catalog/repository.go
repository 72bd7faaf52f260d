package catalog

import "context"

// Lookups return (nil, nil) when nothing matches.
type ServiceRepository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id string) (*Service, error)
}

type ProfessionalRepository interface {
	Create(ctx context.Context, p *Professional) error
	GetByID(ctx context.Context, id string) (*Professional, error)
	// LockForBooking takes a row lock on the professional for the rest of the
	// surrounding transaction. It reports false when the professional does
	// not exist.
	LockForBooking(ctx context.Context, id string) (bool, error)
}
