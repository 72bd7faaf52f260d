package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/domain/webhook"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const defaultWebhookRetention = 30 * 24 * time.Hour

// PruneWebhookEventsUseCase deletes processed ledger entries older than the
// retention window. Failed entries are kept for inspection.
type PruneWebhookEventsUseCase struct {
	ledger    webhook.Repository
	retention time.Duration
	logger    logger.Interface
}

func NewPruneWebhookEventsUseCase(ledger webhook.Repository, retention time.Duration, logger logger.Interface) *PruneWebhookEventsUseCase {
	if retention <= 0 {
		retention = defaultWebhookRetention
	}
	return &PruneWebhookEventsUseCase{
		ledger:    ledger,
		retention: retention,
		logger:    logger,
	}
}

func (uc *PruneWebhookEventsUseCase) Execute(ctx context.Context) (int, error) {
	cutoff := biztime.NowUTC().Add(-uc.retention)
	deleted, err := uc.ledger.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune webhook events: %w", err)
	}
	if deleted > 0 {
		uc.logger.Debugw("webhook events pruned", "count", deleted, "cutoff", cutoff)
	}
	return int(deleted), nil
}
