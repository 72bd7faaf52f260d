package mappers

import (
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/payment"
	vo "github.com/bookwell-inc/bookwell/internal/domain/payment/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
)

func PaymentToModel(p *payment.Payment) *models.PaymentModel {
	return &models.PaymentModel{
		ID:          p.ID(),
		ExternalID:  p.ExternalID(),
		ClientID:    p.ClientID(),
		AmountCents: p.AmountCents(),
		Currency:    p.Currency(),
		Status:      string(p.Status()),
		PaymentType: string(p.Type()),
		PaidAt:      p.PaidAt(),
		Version:     p.Version(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func PaymentToDomain(model *models.PaymentModel) (*payment.Payment, error) {
	status := vo.PaymentStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid payment status: %s", model.Status)
	}
	paymentType := vo.PaymentType(model.PaymentType)
	if !paymentType.IsValid() {
		return nil, fmt.Errorf("invalid payment type: %s", model.PaymentType)
	}

	return payment.ReconstructPayment(
		model.ID, model.ExternalID,
		model.ClientID,
		model.AmountCents,
		model.Currency,
		status,
		paymentType,
		model.PaidAt,
		model.Version,
		model.CreatedAt, model.UpdatedAt,
	), nil
}
