package reconciliation

import (
	"context"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/webhook"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// EventRouter decodes a verified provider event and hands it to the matching
// reconciler entry point. Unknown event types yield a skipped result.
type EventRouter interface {
	Route(ctx context.Context, eventType string, payload []byte) (Result, error)
}

type IngestWebhookCommand struct {
	Provider  string
	EventID   string
	EventType string
	Payload   []byte
}

// IngestWebhookUseCase records every delivery in the webhook ledger before
// routing it, so redeliveries of processed events are answered from the
// ledger.
type IngestWebhookUseCase struct {
	ledger webhook.Repository
	router EventRouter
	logger logger.Interface
}

func NewIngestWebhookUseCase(ledger webhook.Repository, router EventRouter, logger logger.Interface) *IngestWebhookUseCase {
	return &IngestWebhookUseCase{
		ledger: ledger,
		router: router,
		logger: logger,
	}
}

// Execute returns an error only for transient failures; the caller should
// ask the provider to redeliver in that case.
func (uc *IngestWebhookUseCase) Execute(ctx context.Context, cmd IngestWebhookCommand) (Result, error) {
	log := uc.logger.With(
		"provider", cmd.Provider,
		"event_id", cmd.EventID,
		"event_type", cmd.EventType,
	)

	entry, err := webhook.NewEvent(cmd.Provider, cmd.EventID, cmd.EventType, cmd.Payload)
	if err != nil {
		log.Warnw("webhook rejected", "error", err)
		return skipped(err.Error()), nil
	}

	stored, created, err := uc.ledger.Record(ctx, entry)
	if err != nil {
		log.Errorw("failed to record webhook event", "error", err)
		return Result{}, fmt.Errorf("failed to record webhook event: %w", err)
	}
	if !created && stored.IsProcessed() {
		log.Infow("webhook event already processed", "outcome", stored.Outcome(), "attempts", stored.Attempts())
		return duplicate("event already processed"), nil
	}

	result, err := uc.router.Route(ctx, cmd.EventType, cmd.Payload)
	if err != nil {
		if markErr := uc.ledger.MarkFailed(ctx, stored.ID(), err.Error()); markErr != nil {
			log.Warnw("failed to mark webhook event failed", "error", markErr)
		}
		return Result{}, err
	}

	if err := uc.ledger.MarkProcessed(ctx, stored.ID(), string(result.Outcome)); err != nil {
		// The event itself was applied; a redelivery will be reconciled as a
		// duplicate.
		log.Warnw("failed to mark webhook event processed", "error", err)
	}
	return result, nil
}
