package booking

import "github.com/bookwell-inc/bookwell/internal/domain/shared/events"

// Signal describes the booking's current state as an event of eventType.
func (b *Booking) Signal(eventType string) events.BookingEvent {
	e := events.BookingEvent{
		BaseEvent:      events.NewBaseEvent(b.id, eventType),
		ProfessionalID: b.professionalID,
		ServiceID:      b.serviceID,
		Status:         b.status.String(),
		StartsAt:       b.slot.Start(),
		EndsAt:         b.slot.End(),
	}
	if b.clientID != nil {
		e.ClientID = *b.clientID
	}
	return e
}
