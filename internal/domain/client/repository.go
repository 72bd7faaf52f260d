package client

import "context"

// Repository persists clients. Lookups return (nil, nil) when nothing matches.
// Create reports a duplicate email as a conflict error. Several clients may
// share an external customer id; GetByExternalCustomerID returns the oldest.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id string) (*Client, error)
	GetByEmail(ctx context.Context, email string) (*Client, error)
	// GetByEmailForShare is a locking read for use after a create conflict.
	GetByEmailForShare(ctx context.Context, email string) (*Client, error)
	GetByExternalCustomerID(ctx context.Context, externalCustomerID string) (*Client, error)
}

type PendingLinkRepository interface {
	// Upsert stores the link, replacing any earlier claim on the same email.
	Upsert(ctx context.Context, link *PendingLink) error
	GetByEmail(ctx context.Context, email string) (*PendingLink, error)
	Delete(ctx context.Context, email string) error
}
