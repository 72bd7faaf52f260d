package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/mappers"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.ClientToModel(c)).Error; err != nil {
		return createError("client", err)
	}
	return nil
}

func (r *ClientRepository) Update(ctx context.Context, c *client.Client) error {
	model := mappers.ClientToModel(c)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.ClientModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":                 model.Name,
			"phone":                model.Phone,
			"external_customer_id": model.ExternalCustomerID,
			"user_id":              model.UserID,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		if apperrors.IsDuplicateError(result.Error) {
			return createError("client", result.Error)
		}
		return fmt.Errorf("failed to update client: %w", result.Error)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*client.Client, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*client.Client, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByEmailForShare reads the committed row under a shared lock, so a caller
// inside a transaction sees a client inserted after its snapshot was taken.
func (r *ClientRepository) GetByEmailForShare(ctx context.Context, email string) (*client.Client, error) {
	return r.first(ctx, "email = ?", email, db.ForShare())
}

// GetByExternalCustomerID returns the oldest client carrying the customer id.
func (r *ClientRepository) GetByExternalCustomerID(ctx context.Context, externalCustomerID string) (*client.Client, error) {
	return r.first(ctx, "external_customer_id = ?", externalCustomerID, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	})
}

func (r *ClientRepository) first(ctx context.Context, query string, arg interface{}, scopes ...func(*gorm.DB) *gorm.DB) (*client.Client, error) {
	var model models.ClientModel
	if err := db.GetTxFromContext(ctx, r.db).Scopes(scopes...).Where(query, arg).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return mappers.ClientToDomain(&model), nil
}

type PendingLinkRepository struct {
	db *gorm.DB
}

func NewPendingLinkRepository(db *gorm.DB) *PendingLinkRepository {
	return &PendingLinkRepository{db: db}
}

func (r *PendingLinkRepository) Upsert(ctx context.Context, link *client.PendingLink) error {
	err := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "created_at"}),
		}).
		Create(mappers.PendingLinkToModel(link)).Error
	if err != nil {
		return fmt.Errorf("failed to save pending link: %w", err)
	}
	return nil
}

func (r *PendingLinkRepository) GetByEmail(ctx context.Context, email string) (*client.PendingLink, error) {
	var model models.PendingLinkModel
	if err := db.GetTxFromContext(ctx, r.db).Where("email = ?", email).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending link: %w", err)
	}
	return mappers.PendingLinkToDomain(&model), nil
}

func (r *PendingLinkRepository) Delete(ctx context.Context, email string) error {
	if err := db.GetTxFromContext(ctx, r.db).Where("email = ?", email).Delete(&models.PendingLinkModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete pending link: %w", err)
	}
	return nil
}
