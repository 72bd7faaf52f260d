package mappers

import (
	"gorm.io/datatypes"

	"github.com/bookwell-inc/bookwell/internal/domain/webhook"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
)

func WebhookEventToModel(e *webhook.Event) *models.WebhookEventModel {
	payload := e.Payload()
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return &models.WebhookEventModel{
		ID:          e.ID(),
		Provider:    e.Provider(),
		EventID:     e.EventID(),
		EventType:   e.EventType(),
		Payload:     datatypes.JSON(payload),
		Status:      string(e.Status()),
		Outcome:     e.Outcome(),
		LastError:   e.LastError(),
		Attempts:    e.Attempts(),
		ReceivedAt:  e.ReceivedAt(),
		ProcessedAt: e.ProcessedAt(),
	}
}

func WebhookEventToDomain(model *models.WebhookEventModel) *webhook.Event {
	return webhook.ReconstructEvent(
		model.ID, model.Provider, model.EventID, model.EventType,
		[]byte(model.Payload),
		webhook.Status(model.Status),
		model.Outcome, model.LastError,
		model.Attempts,
		model.ReceivedAt,
		model.ProcessedAt,
	)
}
