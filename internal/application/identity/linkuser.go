package identity

import (
	"context"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

// TransactionRunner runs fn inside a transaction carried by ctx.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type LinkUserCommand struct {
	Email  string `json:"email" binding:"required" validate:"required,email"`
	UserID string `json:"user_id" binding:"required" validate:"required,max=64"`
}

type LinkUserResult struct {
	Linked         bool   `json:"linked"`
	Pending        bool   `json:"pending"`
	ClientID       string `json:"client_id,omitempty"`
	BookingsLinked int64  `json:"bookings_linked"`
}

// LinkUserUseCase connects a signed-in account to the Client with the same
// email. When the Client does not exist yet the claim is parked as a pending
// link and applied by the Resolver when the Client is created.
type LinkUserUseCase struct {
	txManager    TransactionRunner
	clients      client.Repository
	pendingLinks client.PendingLinkRepository
	resolver     *Resolver
}

func NewLinkUserUseCase(
	txManager TransactionRunner,
	clients client.Repository,
	pendingLinks client.PendingLinkRepository,
	resolver *Resolver,
) *LinkUserUseCase {
	return &LinkUserUseCase{
		txManager:    txManager,
		clients:      clients,
		pendingLinks: pendingLinks,
		resolver:     resolver,
	}
}

func (uc *LinkUserUseCase) Execute(ctx context.Context, cmd LinkUserCommand) (*LinkUserResult, error) {
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	result := &LinkUserResult{}
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		c, err := uc.clients.GetByEmail(txCtx, cmd.Email)
		if err != nil {
			return fmt.Errorf("failed to look up client: %w", err)
		}

		if c == nil {
			link, err := client.NewPendingLink(cmd.Email, cmd.UserID)
			if err != nil {
				return err
			}
			if err := uc.pendingLinks.Upsert(txCtx, link); err != nil {
				return fmt.Errorf("failed to store pending link: %w", err)
			}
			result.Pending = true
			return nil
		}

		moved, err := uc.resolver.AttachUser(txCtx, c, cmd.UserID)
		if err != nil {
			return err
		}
		result.Linked = c.UserID() != nil && *c.UserID() == cmd.UserID
		result.ClientID = c.ID()
		result.BookingsLinked = moved
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.resolver.logger.Infow("user link processed",
		"email", utils.MaskEmail(cmd.Email),
		"user_id", cmd.UserID,
		"linked", result.Linked,
		"pending", result.Pending,
	)
	return result, nil
}
