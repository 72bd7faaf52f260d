package mappers

import (
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	vo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
)

func BookingToModel(b *booking.Booking) *models.BookingModel {
	return &models.BookingModel{
		ID:              b.ID(),
		ProfessionalID:  b.ProfessionalID(),
		Status:          b.Status().String(),
		StartsAt:        b.StartsAt(),
		EndsAt:          b.EndsAt(),
		DurationMinutes: b.Slot().DurationMinutes(),
		ServiceID:       b.ServiceID(),
		ClientID:        b.ClientID(),
		UserID:          b.UserID(),
		PaymentID:       b.PaymentID(),
		SubscriptionID:  b.SubscriptionID(),
		SourceRef:       b.SourceRef(),
		Version:         b.Version(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
}

func BookingToDomain(model *models.BookingModel) (*booking.Booking, error) {
	status := vo.BookingStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid booking status: %s", model.Status)
	}

	return booking.ReconstructBooking(
		model.ID, model.ProfessionalID, model.ServiceID,
		model.ClientID, model.UserID,
		vo.ReconstructSlot(model.StartsAt, model.EndsAt),
		status,
		model.PaymentID, model.SubscriptionID, model.SourceRef,
		model.Version,
		model.CreatedAt, model.UpdatedAt,
	), nil
}

func BookingsToDomain(rows []models.BookingModel) ([]*booking.Booking, error) {
	out := make([]*booking.Booking, 0, len(rows))
	for i := range rows {
		b, err := BookingToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
