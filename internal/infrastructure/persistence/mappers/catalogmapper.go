package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
)

func ProfessionalToModel(p *catalog.Professional) (*models.ProfessionalModel, error) {
	schedule, err := json.Marshal(p.Schedule())
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule: %w", err)
	}
	return &models.ProfessionalModel{
		ID:        p.ID(),
		Name:      p.Name(),
		Email:     p.Email(),
		PushToken: p.PushToken(),
		Schedule:  datatypes.JSON(schedule),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}, nil
}

func ProfessionalToDomain(model *models.ProfessionalModel) (*catalog.Professional, error) {
	schedule := catalog.WeeklySchedule{}
	if len(model.Schedule) > 0 {
		if err := json.Unmarshal(model.Schedule, &schedule); err != nil {
			return nil, fmt.Errorf("invalid schedule for professional %s: %w", model.ID, err)
		}
	}
	return catalog.ReconstructProfessional(
		model.ID, model.Name,
		model.Email, model.PushToken,
		schedule,
		model.CreatedAt, model.UpdatedAt,
	), nil
}

func ServiceToModel(s *catalog.Service) *models.ServiceModel {
	model := &models.ServiceModel{
		ID:              s.ID(),
		ProfessionalID:  s.ProfessionalID(),
		Name:            s.Name(),
		DurationMinutes: s.DurationMinutes(),
		PriceCents:      s.PriceCents(),
		Currency:        s.Currency(),
		Recurring:       s.IsRecurring(),
		CreatedAt:       s.CreatedAt(),
		UpdatedAt:       s.UpdatedAt(),
	}
	if s.Interval() != "" {
		interval := s.Interval()
		model.Interval = &interval
	}
	return model
}

func ServiceToDomain(model *models.ServiceModel) *catalog.Service {
	interval := ""
	if model.Interval != nil {
		interval = *model.Interval
	}
	return catalog.ReconstructService(
		model.ID, model.ProfessionalID, model.Name,
		model.DurationMinutes,
		model.PriceCents,
		model.Currency,
		model.Recurring,
		interval,
		model.CreatedAt, model.UpdatedAt,
	)
}
