package mappers

import (
	"github.com/bookwell-inc/bookwell/internal/domain/subscription"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
)

func SubscriptionToModel(s *subscription.Subscription) *models.SubscriptionModel {
	return &models.SubscriptionModel{
		ID:                 s.ID(),
		ExternalID:         s.ExternalID(),
		ClientID:           s.ClientID(),
		ServiceID:          s.ServiceID(),
		PaymentID:          s.PaymentID(),
		Status:             s.Status(),
		CurrentPeriodStart: s.CurrentPeriodStart(),
		CurrentPeriodEnd:   s.CurrentPeriodEnd(),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd(),
		Version:            s.Version(),
		CreatedAt:          s.CreatedAt(),
		UpdatedAt:          s.UpdatedAt(),
	}
}

func SubscriptionToDomain(model *models.SubscriptionModel) *subscription.Subscription {
	return subscription.ReconstructSubscription(
		model.ID, model.ExternalID, model.ClientID, model.ServiceID,
		model.PaymentID,
		model.Status,
		model.CurrentPeriodStart, model.CurrentPeriodEnd,
		model.CancelAtPeriodEnd,
		model.Version,
		model.CreatedAt, model.UpdatedAt,
	)
}
