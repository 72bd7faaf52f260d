// Package identity maps payment-provider customer data onto durable Client
// records and links them to site accounts.
package identity

import (
	"context"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	"github.com/bookwell-inc/bookwell/internal/domain/client"
	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

// Resolver finds or creates the Client behind a provider customer. Email is
// the primary key for deduplication, the provider customer id the fallback.
type Resolver struct {
	clients      client.Repository
	pendingLinks client.PendingLinkRepository
	bookings     booking.Repository
	placeholder  string
	logger       logger.Interface
}

func NewResolver(
	clients client.Repository,
	pendingLinks client.PendingLinkRepository,
	bookings booking.Repository,
	placeholderName string,
	log logger.Interface,
) *Resolver {
	if placeholderName == "" {
		placeholderName = client.DefaultPlaceholderName
	}
	return &Resolver{
		clients:      clients,
		pendingLinks: pendingLinks,
		bookings:     bookings,
		placeholder:  placeholderName,
		logger:       log,
	}
}

// ResolveClient returns the Client for the given provider customer, creating
// it when an email is available. It returns (nil, nil) when neither the email
// nor the customer id identifies anyone and no email allows creation.
func (r *Resolver) ResolveClient(ctx context.Context, externalCustomerID string, details client.Details) (*client.Client, error) {
	existing, err := r.lookup(ctx, externalCustomerID, details.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return r.merge(ctx, existing, externalCustomerID, details)
	}

	if details.Email == "" {
		r.logger.Warnw("client resolution failed: no email and unknown customer",
			"external_customer_id", externalCustomerID,
		)
		return nil, nil
	}

	return r.create(ctx, externalCustomerID, details)
}

func (r *Resolver) lookup(ctx context.Context, externalCustomerID, email string) (*client.Client, error) {
	if email != "" {
		c, err := r.clients.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up client by email: %w", err)
		}
		return c, nil
	}
	if externalCustomerID != "" {
		c, err := r.clients.GetByExternalCustomerID(ctx, externalCustomerID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up client by customer ID: %w", err)
		}
		return c, nil
	}
	return nil, nil
}

func (r *Resolver) merge(ctx context.Context, c *client.Client, externalCustomerID string, details client.Details) (*client.Client, error) {
	if !c.Merge(details, externalCustomerID, r.placeholder) {
		return c, nil
	}
	if err := r.clients.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	r.logger.Infow("client details backfilled",
		"client_id", c.ID(),
		"external_customer_id", externalCustomerID,
	)
	return c, nil
}

func (r *Resolver) create(ctx context.Context, externalCustomerID string, details client.Details) (*client.Client, error) {
	c, err := client.NewClient(details, externalCustomerID)
	if err != nil {
		return nil, err
	}

	if err := r.clients.Create(ctx, c); err != nil {
		if !apperrors.IsConflictError(err) {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		// Another delivery created the same email first.
		winner, lookupErr := r.clients.GetByEmailForShare(ctx, details.Email)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to re-read client after conflict: %w", lookupErr)
		}
		if winner == nil {
			return nil, fmt.Errorf("client conflict on %s but no row found: %w", utils.MaskEmail(details.Email), err)
		}
		return r.merge(ctx, winner, externalCustomerID, details)
	}

	r.logger.Infow("client created",
		"client_id", c.ID(),
		"email", utils.MaskEmail(details.Email),
		"external_customer_id", externalCustomerID,
	)

	if err := r.consumePendingLink(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Resolver) consumePendingLink(ctx context.Context, c *client.Client) error {
	if c.Email() == nil {
		return nil
	}
	link, err := r.pendingLinks.GetByEmail(ctx, *c.Email())
	if err != nil {
		return fmt.Errorf("failed to look up pending link: %w", err)
	}
	if link == nil {
		return nil
	}
	if _, err := r.AttachUser(ctx, c, link.UserID()); err != nil {
		return err
	}
	if err := r.pendingLinks.Delete(ctx, link.Email()); err != nil {
		return fmt.Errorf("failed to delete pending link: %w", err)
	}
	return nil
}

// AttachUser links userID to c and moves the client's unlinked bookings to
// that user. It returns the number of bookings moved. Repeating it is harmless.
func (r *Resolver) AttachUser(ctx context.Context, c *client.Client, userID string) (int64, error) {
	if userID == "" {
		return 0, nil
	}
	if c.LinkUser(userID) {
		if err := r.clients.Update(ctx, c); err != nil {
			return 0, fmt.Errorf("failed to link user to client: %w", err)
		}
	}
	if c.UserID() == nil || *c.UserID() != userID {
		r.logger.Warnw("client already linked to another user",
			"client_id", c.ID(),
			"requested_user_id", userID,
		)
		return 0, nil
	}

	moved, err := r.bookings.AssignUserToClientBookings(ctx, c.ID(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill booking user: %w", err)
	}
	if moved > 0 {
		r.logger.Infow("bookings linked to user",
			"client_id", c.ID(),
			"user_id", userID,
			"count", moved,
		)
	}
	return moved, nil
}
