package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/mappers"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
)

type ProfessionalRepository struct {
	db *gorm.DB
}

func NewProfessionalRepository(db *gorm.DB) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

func (r *ProfessionalRepository) Create(ctx context.Context, p *catalog.Professional) error {
	model, err := mappers.ProfessionalToModel(p)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return createError("professional", err)
	}
	return nil
}

func (r *ProfessionalRepository) GetByID(ctx context.Context, id string) (*catalog.Professional, error) {
	var model models.ProfessionalModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}
	return mappers.ProfessionalToDomain(&model)
}

// LockForBooking selects the professional row FOR UPDATE. Outside a
// transaction the lock is released immediately.
func (r *ProfessionalRepository) LockForBooking(ctx context.Context, id string) (bool, error) {
	var model models.ProfessionalModel
	err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ForUpdate()).
		Select("id").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock professional: %w", err)
	}
	return true, nil
}

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, s *catalog.Service) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.ServiceToModel(s)).Error; err != nil {
		return createError("service", err)
	}
	return nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*catalog.Service, error) {
	var model models.ServiceModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return mappers.ServiceToDomain(&model), nil
}
