package payment

import "context"

// Repository persists payments. Create reports a duplicate external id as a
// conflict error; lookups return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (*Payment, error)
	Delete(ctx context.Context, id string) error
}
