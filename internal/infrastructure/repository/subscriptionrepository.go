package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/bookwell-inc/bookwell/internal/domain/subscription"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/mappers"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.SubscriptionToModel(s)).Error; err != nil {
		return createError("subscription", err)
	}
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	model := mappers.SubscriptionToModel(s)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":               model.Status,
			"current_period_start": model.CurrentPeriodStart,
			"current_period_end":   model.CurrentPeriodEnd,
			"cancel_at_period_end": model.CancelAtPeriodEnd,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	return nil
}

func (r *SubscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (*subscription.Subscription, error) {
	return r.getByExternalID(ctx, externalID)
}

func (r *SubscriptionRepository) GetByExternalIDForShare(ctx context.Context, externalID string) (*subscription.Subscription, error) {
	return r.getByExternalID(ctx, externalID, db.ForShare())
}

func (r *SubscriptionRepository) getByExternalID(ctx context.Context, externalID string, scopes ...func(*gorm.DB) *gorm.DB) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := db.GetTxFromContext(ctx, r.db).Scopes(scopes...).Where("external_id = ?", externalID).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return mappers.SubscriptionToDomain(&model), nil
}
