package reconciliation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	bookingvo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/domain/client"
	paymentvo "github.com/bookwell-inc/bookwell/internal/domain/payment/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/domain/subscription"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
)

const juneFirst = "2024-06-01T10:00:00Z"

var juneFirstAt10 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func (h *harness) checkout(id, paymentStatus, date string) reconciliation.CheckoutSession {
	return reconciliation.CheckoutSession{
		ID:            id,
		Mode:          reconciliation.CheckoutModePayment,
		PaymentStatus: paymentStatus,
		CustomerID:    "cus_1",
		Customer:      client.Details{Name: "Ana", Email: "ana@example.com"},
		AmountTotal:   15000,
		Currency:      "brl",
		Metadata:      h.metadata(date),
	}
}

func (h *harness) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.store.DB.Model(model).Count(&n).Error)
	return n
}

func (h *harness) bookingFor(t *testing.T, sessionID string) *booking.Booking {
	t.Helper()
	b, err := h.store.Bookings.GetBySourceRef(context.Background(), booking.CheckoutSourceRef(sessionID))
	require.NoError(t, err)
	return b
}

func TestHandleCheckoutCompleted_PaidCreatesConfirmedBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.reconciler.HandleCheckoutCompleted(ctx, h.checkout("cs_123", "paid", juneFirst))
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

	p, err := h.store.Payments.GetByExternalID(ctx, "cs_123")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsPaid())
	assert.Equal(t, paymentvo.PaymentTypeOneTime, p.Type())

	c, err := h.store.Clients.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, c.ExternalCustomerID())
	assert.Equal(t, "cus_1", *c.ExternalCustomerID())

	b := h.bookingFor(t, "cs_123")
	require.NotNil(t, b)
	assert.Equal(t, bookingvo.BookingStatusConfirmed, b.Status())
	assert.True(t, juneFirstAt10.Equal(b.StartsAt()))
	assert.True(t, juneFirstAt10.Add(30*time.Minute).Equal(b.EndsAt()))
	assert.Equal(t, c.ID(), *b.ClientID())
	assert.Equal(t, p.ID(), *b.PaymentID())

	assert.Equal(t, []string{events.EventTypeBookingCreated}, h.publisher.types())
}

func TestHandleCheckoutCompleted_RedeliveryIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.checkout("cs_123", "paid", juneFirst)

	_, err := h.reconciler.HandleCheckoutCompleted(ctx, session)
	require.NoError(t, err)
	res, err := h.reconciler.HandleCheckoutCompleted(ctx, session)
	require.NoError(t, err)

	assert.Equal(t, reconciliation.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, int64(1), h.count(t, &models.PaymentModel{}))
	assert.Equal(t, int64(1), h.count(t, &models.BookingModel{}))
	assert.Equal(t, int64(1), h.count(t, &models.ClientModel{}))
	assert.Len(t, h.publisher.types(), 1, "a replay emits nothing")
}

func TestHandleCheckoutCompleted_UnpaidThenAsyncSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.checkout("cs_async", "unpaid", juneFirst)

	_, err := h.reconciler.HandleCheckoutCompleted(ctx, session)
	require.NoError(t, err)

	b := h.bookingFor(t, "cs_async")
	require.NotNil(t, b)
	assert.Equal(t, bookingvo.BookingStatusPending, b.Status())
	p, err := h.store.Payments.GetByExternalID(ctx, "cs_async")
	require.NoError(t, err)
	assert.False(t, p.IsPaid())

	res, err := h.reconciler.HandleAsyncPaymentSucceeded(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

	b = h.bookingFor(t, "cs_async")
	assert.Equal(t, bookingvo.BookingStatusConfirmed, b.Status())
	p, err = h.store.Payments.GetByExternalID(ctx, "cs_async")
	require.NoError(t, err)
	assert.True(t, p.IsPaid())

	res, err = h.reconciler.HandleAsyncPaymentSucceeded(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeDuplicate, res.Outcome)

	assert.Equal(t, []string{events.EventTypeBookingCreated, events.EventTypeBookingConfirmed}, h.publisher.types())
}

func TestHandleAsyncPaymentFailed_CancelsAndReopensSlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.checkout("cs_fail", "unpaid", juneFirst)

	_, err := h.reconciler.HandleCheckoutCompleted(ctx, session)
	require.NoError(t, err)

	res, err := h.reconciler.HandleAsyncPaymentFailed(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)
	assert.Equal(t, bookingvo.BookingStatusCancelled, h.bookingFor(t, "cs_fail").Status())

	res, err = h.reconciler.HandleAsyncPaymentFailed(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeDuplicate, res.Outcome)

	_, err = h.reconciler.HandleCheckoutCompleted(ctx, h.checkout("cs_retry", "paid", juneFirst))
	require.NoError(t, err)
	retry := h.bookingFor(t, "cs_retry")
	require.NotNil(t, retry, "the cancelled interval is bookable again")
	assert.Equal(t, bookingvo.BookingStatusConfirmed, retry.Status())
}

func TestHandleCheckoutExpired(t *testing.T) {
	t.Run("pending booking is cancelled and payment removed", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		session := h.checkout("cs_exp", "unpaid", juneFirst)
		_, err := h.reconciler.HandleCheckoutCompleted(ctx, session)
		require.NoError(t, err)

		res, err := h.reconciler.HandleCheckoutExpired(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

		b := h.bookingFor(t, "cs_exp")
		require.NotNil(t, b)
		assert.Equal(t, bookingvo.BookingStatusCancelled, b.Status())
		assert.Nil(t, b.PaymentID())

		p, err := h.store.Payments.GetByExternalID(ctx, "cs_exp")
		require.NoError(t, err)
		assert.Nil(t, p)

		res, err = h.reconciler.HandleCheckoutExpired(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)
	})

	t.Run("confirmed booking is left alone", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		session := h.checkout("cs_paid", "paid", juneFirst)
		_, err := h.reconciler.HandleCheckoutCompleted(ctx, session)
		require.NoError(t, err)

		res, err := h.reconciler.HandleCheckoutExpired(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)

		assert.Equal(t, bookingvo.BookingStatusConfirmed, h.bookingFor(t, "cs_paid").Status())
		p, err := h.store.Payments.GetByExternalID(ctx, "cs_paid")
		require.NoError(t, err)
		assert.NotNil(t, p)
	})
}

func TestHandleCheckoutCompleted_SlotTakenRecordsPaymentOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.reconciler.HandleCheckoutCompleted(ctx, h.checkout("cs_first", "paid", juneFirst))
	require.NoError(t, err)

	res, err := h.reconciler.HandleCheckoutCompleted(ctx, h.checkout("cs_second", "paid", "2024-06-01T10:15:00Z"))
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)
	assert.Contains(t, res.Reason, "slot unavailable")

	p, err := h.store.Payments.GetByExternalID(ctx, "cs_second")
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Nil(t, h.bookingFor(t, "cs_second"))
	assert.Equal(t, int64(1), h.count(t, &models.BookingModel{}))
}

func TestHandleCheckoutCompleted_SoftFailures(t *testing.T) {
	t.Run("metadata without booking fields", func(t *testing.T) {
		h := newHarness(t)
		session := h.checkout("cs_nometa", "paid", juneFirst)
		session.Metadata = map[string]string{"campaign": "summer"}

		res, err := h.reconciler.HandleCheckoutCompleted(context.Background(), session)
		require.NoError(t, err)
		assert.Contains(t, res.Reason, "metadata incomplete")
		assert.Equal(t, int64(1), h.count(t, &models.PaymentModel{}))
		assert.Zero(t, h.count(t, &models.BookingModel{}))
	})

	t.Run("malformed date", func(t *testing.T) {
		h := newHarness(t)
		res, err := h.reconciler.HandleCheckoutCompleted(context.Background(), h.checkout("cs_baddate", "paid", "01/06/2024 10:00"))
		require.NoError(t, err)
		assert.Contains(t, res.Reason, "metadata incomplete")
		assert.Zero(t, h.count(t, &models.BookingModel{}))
	})

	t.Run("unknown professional", func(t *testing.T) {
		h := newHarness(t)
		session := h.checkout("cs_nopro", "paid", juneFirst)
		session.Metadata["professionalId"] = "pro_missing"

		res, err := h.reconciler.HandleCheckoutCompleted(context.Background(), session)
		require.NoError(t, err)
		assert.Contains(t, res.Reason, "professional not found")
		assert.Zero(t, h.count(t, &models.BookingModel{}))
	})

	t.Run("customer without email cannot be resolved", func(t *testing.T) {
		h := newHarness(t)
		session := h.checkout("cs_anon", "paid", juneFirst)
		session.CustomerID = "cus_unknown"
		session.Customer = client.Details{}

		res, err := h.reconciler.HandleCheckoutCompleted(context.Background(), session)
		require.NoError(t, err)
		assert.Contains(t, res.Reason, "client unresolved")

		p, err := h.store.Payments.GetByExternalID(context.Background(), "cs_anon")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Nil(t, p.ClientID())
		assert.Zero(t, h.count(t, &models.ClientModel{}))
		assert.Zero(t, h.count(t, &models.BookingModel{}))
	})
}

func TestHandleCheckoutCompleted_ResolvesByCustomerIDAndLinksUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.reconciler.HandleCheckoutCompleted(ctx, h.checkout("cs_a", "paid", juneFirst))
	require.NoError(t, err)

	second := h.checkout("cs_b", "paid", "2024-06-08T10:00:00Z")
	second.Customer = client.Details{}
	second.Metadata["userId"] = "user_9"
	_, err = h.reconciler.HandleCheckoutCompleted(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, int64(1), h.count(t, &models.ClientModel{}))
	for _, session := range []string{"cs_a", "cs_b"} {
		b := h.bookingFor(t, session)
		require.NotNil(t, b)
		require.NotNil(t, b.UserID(), session)
		assert.Equal(t, "user_9", *b.UserID(), "earlier bookings are backfilled")
	}
}

func TestHandleCheckoutCompleted_NewEmailWithSharedCustomerID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.reconciler.HandleCheckoutCompleted(ctx, h.checkout("cs_a", "paid", juneFirst))
	require.NoError(t, err)

	second := h.checkout("cs_b", "paid", "2024-06-08T10:00:00Z")
	second.Customer = client.Details{Name: "Bia", Email: "bia@example.com"}
	for i := 0; i < 3; i++ {
		_, err := h.reconciler.HandleCheckoutCompleted(ctx, second)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), h.count(t, &models.PaymentModel{}))
	assert.Equal(t, int64(2), h.count(t, &models.ClientModel{}))

	p, err := h.store.Payments.GetByExternalID(ctx, "cs_b")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsPaid())

	bia, err := h.store.Clients.GetByEmail(ctx, "bia@example.com")
	require.NoError(t, err)
	require.NotNil(t, bia)
	b := h.bookingFor(t, "cs_b")
	require.NotNil(t, b)
	assert.Equal(t, bia.ID(), *b.ClientID())
}

func TestHandleCheckoutCompleted_Subscription(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	periodEnd := juneFirstAt10.AddDate(0, 1, 0)
	h.fetcher.snapshots["sub_1"] = &reconciliation.SubscriptionSnapshot{
		ID:               "sub_1",
		Status:           subscription.StatusActive,
		CurrentPeriodEnd: &periodEnd,
	}
	session := h.checkout("cs_sub", "paid", juneFirst)
	session.Mode = reconciliation.CheckoutModeSubscription
	session.SubscriptionID = "sub_1"

	res, err := h.reconciler.HandleCheckoutCompleted(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

	sub, err := h.store.Subscriptions.GetByExternalID(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, h.service.ID(), sub.ServiceID())
	assert.Equal(t, subscription.StatusActive, sub.Status())

	b := h.bookingFor(t, "cs_sub")
	require.NotNil(t, b)
	require.NotNil(t, b.SubscriptionID())
	assert.Equal(t, sub.ID(), *b.SubscriptionID())

	p, err := h.store.Payments.GetByExternalID(ctx, "cs_sub")
	require.NoError(t, err)
	assert.Equal(t, paymentvo.PaymentTypeSubscription, p.Type())

	assert.Equal(t, []string{events.EventTypeSubscriptionStatusChanged, events.EventTypeBookingCreated}, h.publisher.types())
}

func TestHandleCheckoutCompleted_SubscriptionFetchFailureIsTransient(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = errors.New("provider unavailable")

	session := h.checkout("cs_sub", "paid", juneFirst)
	session.Mode = reconciliation.CheckoutModeSubscription
	session.SubscriptionID = "sub_1"

	_, err := h.reconciler.HandleCheckoutCompleted(context.Background(), session)
	assert.Error(t, err)
	assert.Zero(t, h.count(t, &models.PaymentModel{}))
	assert.Zero(t, h.count(t, &models.SubscriptionModel{}))
}

func TestHandleCheckoutCompleted_UnknownSubscriptionIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = fmt.Errorf("sub_gone: %w", reconciliation.ErrSubscriptionNotFound)

	session := h.checkout("cs_sub", "paid", juneFirst)
	session.Mode = reconciliation.CheckoutModeSubscription
	session.SubscriptionID = "sub_gone"

	res, err := h.reconciler.HandleCheckoutCompleted(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)
	assert.Zero(t, h.count(t, &models.PaymentModel{}))
}

func (h *harness) seedSubscription(t *testing.T, externalID string) (*client.Client, *subscription.Subscription) {
	t.Helper()
	ctx := context.Background()
	c, err := client.NewClient(client.Details{Name: "Ana", Email: "ana@example.com"}, "cus_1")
	require.NoError(t, err)
	c.LinkUser("user_1")
	require.NoError(t, h.store.Clients.Create(ctx, c))

	sub, err := subscription.NewSubscription(externalID, c.ID(), h.service.ID(), "", subscription.ProviderState{Status: subscription.StatusActive})
	require.NoError(t, err)
	require.NoError(t, h.store.Subscriptions.Create(ctx, sub))
	return c, sub
}

func TestHandleInvoicePaymentSucceeded_BooksRenewal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, sub := h.seedSubscription(t, "sub_1")

	invoice := reconciliation.Invoice{
		ID:             "in_1",
		SubscriptionID: "sub_1",
		Metadata: map[string]string{
			"professionalId": h.professional.ID(),
			"date":           juneFirst,
		},
	}

	res, err := h.reconciler.HandleInvoicePaymentSucceeded(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

	b, err := h.store.Bookings.GetBySourceRef(ctx, booking.InvoiceSourceRef("in_1"))
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, bookingvo.BookingStatusConfirmed, b.Status())
	assert.Equal(t, c.ID(), *b.ClientID())
	assert.Equal(t, h.service.ID(), b.ServiceID())
	assert.Equal(t, sub.ID(), *b.SubscriptionID())
	assert.Equal(t, "user_1", *b.UserID())
	assert.True(t, juneFirstAt10.Equal(b.StartsAt()))

	res, err = h.reconciler.HandleInvoicePaymentSucceeded(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeDuplicate, res.Outcome)

	invoice.ID = "in_2"
	res, err = h.reconciler.HandleInvoicePaymentSucceeded(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeDuplicate, res.Outcome, "one booking per subscription and start time")

	assert.Equal(t, int64(1), h.count(t, &models.BookingModel{}))
}

func TestHandleInvoicePaymentSucceeded_UsesSubscriptionService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedSubscription(t, "sub_1")

	res, err := h.reconciler.HandleInvoicePaymentSucceeded(ctx, reconciliation.Invoice{
		ID:             "in_1",
		SubscriptionID: "sub_1",
		Metadata: map[string]string{
			"professionalId": h.professional.ID(),
			"serviceId":      "svc_elsewhere",
			"date":           juneFirst,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

	b, err := h.store.Bookings.GetBySourceRef(ctx, booking.InvoiceSourceRef("in_1"))
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, h.service.ID(), b.ServiceID())
}

func TestHandleInvoicePaymentSucceeded_Skips(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.reconciler.HandleInvoicePaymentSucceeded(ctx, reconciliation.Invoice{ID: "in_1", SubscriptionID: "sub_unknown"})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)

	h.seedSubscription(t, "sub_1")
	res, err = h.reconciler.HandleInvoicePaymentSucceeded(ctx, reconciliation.Invoice{ID: "in_2", SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome, "renewal without a date books nothing")
	assert.Zero(t, h.count(t, &models.BookingModel{}))
}

func TestHandleInvoicePaymentFailed_MarksPastDue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedSubscription(t, "sub_1")

	invoice := reconciliation.Invoice{ID: "in_1", SubscriptionID: "sub_1"}
	res, err := h.reconciler.HandleInvoicePaymentFailed(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

	sub, err := h.store.Subscriptions.GetByExternalID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPastDue, sub.Status())

	res, err = h.reconciler.HandleInvoicePaymentFailed(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, []string{events.EventTypeSubscriptionStatusChanged}, h.publisher.types())
}

func TestHandleSubscriptionUpdatedAndDeleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.reconciler.HandleSubscriptionUpdated(ctx, reconciliation.SubscriptionSnapshot{ID: "sub_unknown", Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)

	h.seedSubscription(t, "sub_1")
	periodEnd := juneFirstAt10.AddDate(0, 1, 0)
	res, err = h.reconciler.HandleSubscriptionUpdated(ctx, reconciliation.SubscriptionSnapshot{
		ID:                "sub_1",
		Status:            subscription.StatusActive,
		CurrentPeriodEnd:  &periodEnd,
		CancelAtPeriodEnd: true,
	})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)
	assert.Empty(t, h.publisher.types(), "no status change, no signal")

	sub, err := h.store.Subscriptions.GetByExternalID(ctx, "sub_1")
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd())
	require.NotNil(t, sub.CurrentPeriodEnd())
	assert.True(t, periodEnd.Equal(*sub.CurrentPeriodEnd()))

	res, err = h.reconciler.HandleSubscriptionDeleted(ctx, reconciliation.SubscriptionSnapshot{ID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)

	sub, err = h.store.Subscriptions.GetByExternalID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCanceled, sub.Status())
	assert.Equal(t, []string{events.EventTypeSubscriptionStatusChanged}, h.publisher.types())
}
