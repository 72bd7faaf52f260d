package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bookwell-inc/bookwell/internal/domain/webhook"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/mappers"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
)

const maxLastErrorLength = 2000

// WebhookEventRepository is the delivery ledger.
type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Record(ctx context.Context, e *webhook.Event) (*webhook.Event, bool, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	model := mappers.WebhookEventToModel(e)
	model.Attempts = 1
	err := tx.Create(model).Error
	if err == nil {
		return mappers.WebhookEventToDomain(model), true, nil
	}
	if !apperrors.IsDuplicateError(err) {
		return nil, false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	if err := tx.Model(&models.WebhookEventModel{}).
		Where("provider = ? AND event_id = ?", e.Provider(), e.EventID()).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
		return nil, false, fmt.Errorf("failed to count webhook delivery: %w", err)
	}

	var stored models.WebhookEventModel
	if err := tx.Where("provider = ? AND event_id = ?", e.Provider(), e.EventID()).First(&stored).Error; err != nil {
		return nil, false, fmt.Errorf("failed to load webhook event: %w", err)
	}
	return mappers.WebhookEventToDomain(&stored), false, nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, id, outcome string) error {
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.WebhookEventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(webhook.StatusProcessed),
			"outcome":      outcome,
			"last_error":   "",
			"processed_at": biztime.NowUTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}
	return nil
}

// MarkFailed records a transient failure. Processed entries are left alone.
func (r *WebhookEventRepository) MarkFailed(ctx context.Context, id, reason string) error {
	if len(reason) > maxLastErrorLength {
		reason = reason[:maxLastErrorLength]
	}
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.WebhookEventModel{}).
		Where("id = ? AND status <> ?", id, string(webhook.StatusProcessed)).
		Updates(map[string]interface{}{
			"status":     string(webhook.StatusFailed),
			"last_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark webhook event failed: %w", err)
	}
	return nil
}

func (r *WebhookEventRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND processed_at < ?", string(webhook.StatusProcessed), before.UTC()).
		Delete(&models.WebhookEventModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune webhook events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
