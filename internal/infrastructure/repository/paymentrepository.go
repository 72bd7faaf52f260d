package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/bookwell-inc/bookwell/internal/domain/payment"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/mappers"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.PaymentToModel(p)).Error; err != nil {
		return createError("payment", err)
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	model := mappers.PaymentToModel(p)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"client_id":  model.ClientID,
			"paid_at":    model.PaidAt,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*payment.Payment, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

func (r *PaymentRepository) first(ctx context.Context, query string, arg interface{}) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return mappers.PaymentToDomain(&model)
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).Delete(&models.PaymentModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return nil
}
