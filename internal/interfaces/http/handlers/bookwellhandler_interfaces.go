package handlers

import (
	"context"

	"github.com/bookwell-inc/bookwell/internal/application/availability"
	"github.com/bookwell-inc/bookwell/internal/application/identity"
	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/stripe"
)

// Use case interfaces for the booking handlers

type webhookVerifier interface {
	Verify(payload []byte, signatureHeader string) (*stripe.VerifiedEvent, error)
}

type ingestWebhookUseCase interface {
	Execute(ctx context.Context, cmd reconciliation.IngestWebhookCommand) (reconciliation.Result, error)
}

type checkAvailabilityUseCase interface {
	Execute(ctx context.Context, q availability.CheckAvailabilityQuery) (*availability.CheckAvailabilityResult, error)
}

type linkUserUseCase interface {
	Execute(ctx context.Context, cmd identity.LinkUserCommand) (*identity.LinkUserResult, error)
}
