package subscription

import "context"

// Repository persists subscriptions. Create reports a duplicate external id as
// a conflict error; lookups return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	Update(ctx context.Context, s *Subscription) error
	GetByExternalID(ctx context.Context, externalID string) (*Subscription, error)
	// GetByExternalIDForShare is a locking read for use after a create conflict.
	GetByExternalIDForShare(ctx context.Context, externalID string) (*Subscription, error)
}
