package maintenance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwell-inc/bookwell/internal/application/maintenance"
	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	vo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/domain/webhook"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/testutil"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturePublisher) Publish(e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) PublishAll(es []events.DomainEvent) error {
	for _, e := range es {
		_ = p.Publish(e)
	}
	return nil
}

func seedBooking(t *testing.T, store *testutil.Store, proID, svcID string, start time.Time, status vo.BookingStatus) *booking.Booking {
	t.Helper()
	slot, err := vo.NewSlot(start, 30)
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.NewBookingParams{
		ProfessionalID: proID,
		ServiceID:      svcID,
		Slot:           slot,
		Status:         status,
	})
	require.NoError(t, err)
	require.NoError(t, store.Bookings.Create(context.Background(), b))
	return b
}

func TestCompletePastBookings(t *testing.T) {
	store := testutil.NewStore(t)
	pro := store.SeedProfessional(t, "Bruna", nil)
	svc := store.SeedService(t, pro.ID(), 30)
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	ended := seedBooking(t, store, pro.ID(), svc.ID(), past, vo.BookingStatusConfirmed)
	pendingPast := seedBooking(t, store, pro.ID(), svc.ID(), past.Add(time.Hour), vo.BookingStatusPending)
	upcoming := seedBooking(t, store, pro.ID(), svc.ID(), future, vo.BookingStatusConfirmed)

	pub := &capturePublisher{}
	uc := maintenance.NewCompletePastBookingsUseCase(store.Bookings, pub, 0, logger.NewNop())

	count, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.Bookings.GetByID(ctx, ended.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.BookingStatusCompleted, got.Status())

	for _, b := range []*booking.Booking{pendingPast, upcoming} {
		got, err := store.Bookings.GetByID(ctx, b.ID())
		require.NoError(t, err)
		assert.Equal(t, b.Status(), got.Status())
	}

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventTypeBookingCompleted, pub.events[0].GetEventType())
	assert.Equal(t, ended.ID(), pub.events[0].GetAggregateID())

	count, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPruneWebhookEvents(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	record := func(id string) *webhook.Event {
		e, err := webhook.NewEvent("stripe", id, "checkout.session.completed", []byte(`{}`))
		require.NoError(t, err)
		stored, created, err := store.WebhookEvents.Record(ctx, e)
		require.NoError(t, err)
		require.True(t, created)
		return stored
	}

	done := record("evt_done")
	require.NoError(t, store.WebhookEvents.MarkProcessed(ctx, done.ID(), "applied"))
	failed := record("evt_failed")
	require.NoError(t, store.WebhookEvents.MarkFailed(ctx, failed.ID(), "boom"))

	count, err := maintenance.NewPruneWebhookEventsUseCase(store.WebhookEvents, 0, logger.NewNop()).Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "default retention keeps fresh entries")

	time.Sleep(10 * time.Millisecond)
	count, err = maintenance.NewPruneWebhookEventsUseCase(store.WebhookEvents, time.Millisecond, logger.NewNop()).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, created, err := store.WebhookEvents.Record(ctx, failed)
	require.NoError(t, err)
	assert.False(t, created, "failed entries are kept")
}
