package email

import (
	"context"
	"fmt"
	"html"

	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/domain/client"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

const slotLayout = "02/01/2006 às 15:04"

// Sender sends one email.
type Sender interface {
	SendEmail(to, subject, htmlBody, plainBody string) error
}

// BookingMailer emails the client when a booking is confirmed or cancelled.
type BookingMailer struct {
	sender   Sender
	clients  client.Repository
	services catalog.ServiceRepository
	logger   logger.Interface
}

func NewBookingMailer(sender Sender, clients client.Repository, services catalog.ServiceRepository, logger logger.Interface) *BookingMailer {
	return &BookingMailer{
		sender:   sender,
		clients:  clients,
		services: services,
		logger:   logger,
	}
}

func (m *BookingMailer) Name() string { return "booking-mailer" }

func (m *BookingMailer) CanHandle(eventType string) bool {
	switch eventType {
	case events.EventTypeBookingCreated, events.EventTypeBookingConfirmed, events.EventTypeBookingCancelled:
		return true
	}
	return false
}

func (m *BookingMailer) Handle(ctx context.Context, event events.DomainEvent) error {
	e, ok := event.(events.BookingEvent)
	if !ok || e.ClientID == "" {
		return nil
	}
	// Pending bookings are announced once they are confirmed.
	if e.EventType == events.EventTypeBookingCreated && e.Status != "confirmed" {
		return nil
	}

	c, err := m.clients.GetByID(ctx, e.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}
	if c == nil || c.Email() == nil {
		return nil
	}

	serviceName := "seu atendimento"
	svc, err := m.services.GetByID(ctx, e.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to load service: %w", err)
	}
	if svc != nil {
		serviceName = svc.Name()
	}

	when := biztime.FormatInBizTimezone(e.StartsAt, slotLayout)
	subject, plain := compose(e.EventType, c.DisplayName(), serviceName, when)
	htmlBody := fmt.Sprintf("<html><body><p>%s</p></body></html>", html.EscapeString(plain))

	if err := m.sender.SendEmail(*c.Email(), subject, htmlBody, plain); err != nil {
		return err
	}

	m.logger.Infow("booking email sent",
		"booking_id", e.AggregateID,
		"event_type", e.EventType,
		"to", utils.MaskEmail(*c.Email()),
	)
	return nil
}

func compose(eventType, name, serviceName, when string) (string, string) {
	if eventType == events.EventTypeBookingCancelled {
		return "Agendamento cancelado",
			fmt.Sprintf("Olá %s, seu agendamento de %s em %s foi cancelado.", name, serviceName, when)
	}
	return "Agendamento confirmado",
		fmt.Sprintf("Olá %s, seu agendamento de %s em %s está confirmado.", name, serviceName, when)
}
