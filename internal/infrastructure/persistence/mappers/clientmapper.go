package mappers

import (
	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
)

func ClientToModel(c *client.Client) *models.ClientModel {
	return &models.ClientModel{
		ID:                 c.ID(),
		Name:               c.Name(),
		Email:              c.Email(),
		Phone:              c.Phone(),
		ExternalCustomerID: c.ExternalCustomerID(),
		UserID:             c.UserID(),
		Version:            c.Version(),
		CreatedAt:          c.CreatedAt(),
		UpdatedAt:          c.UpdatedAt(),
	}
}

func ClientToDomain(model *models.ClientModel) *client.Client {
	return client.ReconstructClient(
		model.ID,
		model.Name, model.Email, model.Phone, model.ExternalCustomerID, model.UserID,
		model.Version,
		model.CreatedAt, model.UpdatedAt,
	)
}

func PendingLinkToModel(l *client.PendingLink) *models.PendingLinkModel {
	return &models.PendingLinkModel{
		Email:     l.Email(),
		UserID:    l.UserID(),
		CreatedAt: l.CreatedAt(),
	}
}

func PendingLinkToDomain(model *models.PendingLinkModel) *client.PendingLink {
	return client.ReconstructPendingLink(model.Email, model.UserID, model.CreatedAt)
}
