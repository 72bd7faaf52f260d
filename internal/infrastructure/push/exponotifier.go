// Package push notifies professionals on their devices through Expo.
package push

import (
	"context"
	"fmt"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"

	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const slotLayout = "02/01 15:04"

// ExpoNotifier tells a professional about new and cancelled bookings.
type ExpoNotifier struct {
	professionals catalog.ProfessionalRepository
	client        *expo.PushClient
	logger        logger.Interface
}

// NewExpoNotifier builds a notifier. config may be nil for the public Expo
// endpoint without an access token.
func NewExpoNotifier(professionals catalog.ProfessionalRepository, config *expo.ClientConfig, logger logger.Interface) *ExpoNotifier {
	return &ExpoNotifier{
		professionals: professionals,
		client:        expo.NewPushClient(config),
		logger:        logger,
	}
}

func (n *ExpoNotifier) Name() string { return "expo-push" }

func (n *ExpoNotifier) CanHandle(eventType string) bool {
	return eventType == events.EventTypeBookingCreated || eventType == events.EventTypeBookingCancelled
}

func (n *ExpoNotifier) Handle(ctx context.Context, event events.DomainEvent) error {
	e, ok := event.(events.BookingEvent)
	if !ok {
		return nil
	}

	pro, err := n.professionals.GetByID(ctx, e.ProfessionalID)
	if err != nil {
		return fmt.Errorf("failed to load professional: %w", err)
	}
	if pro == nil || pro.PushToken() == nil {
		return nil
	}

	token, err := expo.NewExponentPushToken(*pro.PushToken())
	if err != nil {
		n.logger.Warnw("professional has an invalid push token",
			"professional_id", pro.ID(),
			"error", err,
		)
		return nil
	}

	title, body := message(e)
	resp, err := n.client.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{token},
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: expo.DefaultPriority,
		Data: map[string]string{
			"booking_id": e.AggregateID,
			"event_type": e.EventType,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish push notification: %w", err)
	}
	if err := resp.ValidateResponse(); err != nil {
		return fmt.Errorf("push notification rejected: %w", err)
	}

	n.logger.Debugw("push notification sent",
		"professional_id", pro.ID(),
		"booking_id", e.AggregateID,
		"event_type", e.EventType,
	)
	return nil
}

func message(e events.BookingEvent) (string, string) {
	when := biztime.FormatInBizTimezone(e.StartsAt, slotLayout)
	if e.EventType == events.EventTypeBookingCancelled {
		return "Agendamento cancelado", fmt.Sprintf("O horário de %s foi liberado.", when)
	}
	return "Novo agendamento", fmt.Sprintf("Você tem um atendimento em %s.", when)
}
