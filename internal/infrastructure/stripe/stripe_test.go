package stripe_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/stripe"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const testSecret = "whsec_test"

func signedEvent(t *testing.T, body string) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestVerifier(t *testing.T) {
	body := `{"id":"evt_1","object":"event","type":"checkout.session.completed","api_version":"2020-08-27","data":{"object":{"id":"cs_1","object":"checkout.session"}}}`
	payload, header := signedEvent(t, body)

	t.Run("valid signature", func(t *testing.T) {
		ev, err := stripe.NewVerifier(testSecret).Verify(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, "checkout.session.completed", ev.Type)
		assert.JSONEq(t, `{"id":"cs_1","object":"checkout.session"}`, string(ev.Object))
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := stripe.NewVerifier("whsec_other").Verify(payload, header)
		assert.ErrorIs(t, err, stripe.ErrInvalidEvent)
	})

	t.Run("tampered body", func(t *testing.T) {
		tampered := []byte(string(payload[:len(payload)-2]) + " }")
		_, err := stripe.NewVerifier(testSecret).Verify(tampered, header)
		assert.ErrorIs(t, err, stripe.ErrInvalidEvent)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := stripe.NewVerifier("").Verify(payload, header)
		assert.ErrorIs(t, err, stripe.ErrInvalidEvent)
	})
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) result(args mock.Arguments) (reconciliation.Result, error) {
	return args.Get(0).(reconciliation.Result), args.Error(1)
}

func (m *mockReconciler) HandleCheckoutCompleted(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, s))
}

func (m *mockReconciler) HandleAsyncPaymentSucceeded(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, s))
}

func (m *mockReconciler) HandleAsyncPaymentFailed(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, s))
}

func (m *mockReconciler) HandleCheckoutExpired(ctx context.Context, s reconciliation.CheckoutSession) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, s))
}

func (m *mockReconciler) HandleSubscriptionUpdated(ctx context.Context, s reconciliation.SubscriptionSnapshot) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, s))
}

func (m *mockReconciler) HandleSubscriptionDeleted(ctx context.Context, s reconciliation.SubscriptionSnapshot) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, s))
}

func (m *mockReconciler) HandleInvoicePaymentSucceeded(ctx context.Context, inv reconciliation.Invoice) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, inv))
}

func (m *mockReconciler) HandleInvoicePaymentFailed(ctx context.Context, inv reconciliation.Invoice) (reconciliation.Result, error) {
	return m.result(m.Called(ctx, inv))
}

var applied = reconciliation.Result{Outcome: reconciliation.OutcomeApplied}

func TestRouter_CheckoutSessionDecoding(t *testing.T) {
	rec := new(mockReconciler)
	router := stripe.NewRouter(rec, logger.NewNop())

	object := `{
		"id": "cs_1",
		"object": "checkout.session",
		"mode": "payment",
		"payment_status": "paid",
		"customer": "cus_1",
		"customer_email": "fallback@example.com",
		"customer_details": {"name": "Ana", "email": "ana@example.com", "phone": "+5511999999999"},
		"amount_total": 15000,
		"currency": "brl",
		"metadata": {"professionalId": "pro_1", "serviceId": "svc_1", "date": "2024-06-01T10:00:00Z"}
	}`

	rec.On("HandleCheckoutCompleted", mock.Anything, mock.MatchedBy(func(s reconciliation.CheckoutSession) bool {
		return s.ID == "cs_1" &&
			s.IsPaid() &&
			!s.IsSubscription() &&
			s.CustomerID == "cus_1" &&
			s.Customer.Email == "ana@example.com" &&
			s.Customer.Name == "Ana" &&
			s.AmountTotal == 15000 &&
			s.Currency == "brl" &&
			s.Metadata["professionalId"] == "pro_1"
	})).Return(applied, nil).Once()

	res, err := router.Route(context.Background(), "checkout.session.completed", []byte(object))
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeApplied, res.Outcome)
	rec.AssertExpectations(t)
}

func TestRouter_CheckoutEventsDispatch(t *testing.T) {
	object := []byte(`{"id":"cs_2","object":"checkout.session","mode":"subscription","subscription":"sub_1","customer_email":"ana@example.com"}`)

	tests := []struct {
		eventType string
		method    string
	}{
		{"checkout.session.async_payment_succeeded", "HandleAsyncPaymentSucceeded"},
		{"checkout.session.async_payment_failed", "HandleAsyncPaymentFailed"},
		{"checkout.session.expired", "HandleCheckoutExpired"},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			rec := new(mockReconciler)
			rec.On(tt.method, mock.Anything, mock.MatchedBy(func(s reconciliation.CheckoutSession) bool {
				return s.ID == "cs_2" && s.SubscriptionID == "sub_1" && s.Customer.Email == "ana@example.com"
			})).Return(applied, nil).Once()

			_, err := stripe.NewRouter(rec, logger.NewNop()).Route(context.Background(), tt.eventType, object)
			require.NoError(t, err)
			rec.AssertExpectations(t)
		})
	}
}

func TestRouter_SubscriptionEvents(t *testing.T) {
	object := []byte(`{"id":"sub_1","object":"subscription","status":"canceled","current_period_start":1717200000,"current_period_end":1719792000,"cancel_at_period_end":true}`)

	rec := new(mockReconciler)
	rec.On("HandleSubscriptionDeleted", mock.Anything, mock.MatchedBy(func(s reconciliation.SubscriptionSnapshot) bool {
		return s.ID == "sub_1" &&
			s.Status == "canceled" &&
			s.CancelAtPeriodEnd &&
			s.CurrentPeriodStart != nil && s.CurrentPeriodStart.Equal(time.Unix(1717200000, 0))
	})).Return(applied, nil).Once()
	rec.On("HandleSubscriptionUpdated", mock.Anything, mock.Anything).Return(applied, nil).Once()

	router := stripe.NewRouter(rec, logger.NewNop())
	_, err := router.Route(context.Background(), "customer.subscription.deleted", object)
	require.NoError(t, err)
	_, err = router.Route(context.Background(), "customer.subscription.updated", object)
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

func TestRouter_InvoiceMetadataFallsBackToSubscription(t *testing.T) {
	object := []byte(`{
		"id": "in_1",
		"object": "invoice",
		"subscription": "sub_1",
		"customer": "cus_1",
		"customer_email": "ana@example.com",
		"amount_paid": 15000,
		"currency": "brl",
		"metadata": {"date": "2024-07-01T10:00:00Z"},
		"subscription_details": {"metadata": {"professionalId": "pro_1", "date": "2024-06-01T10:00:00Z"}}
	}`)

	rec := new(mockReconciler)
	rec.On("HandleInvoicePaymentSucceeded", mock.Anything, mock.MatchedBy(func(inv reconciliation.Invoice) bool {
		return inv.ID == "in_1" &&
			inv.SubscriptionID == "sub_1" &&
			inv.CustomerID == "cus_1" &&
			inv.Metadata["professionalId"] == "pro_1" &&
			inv.Metadata["date"] == "2024-07-01T10:00:00Z"
	})).Return(applied, nil).Once()
	rec.On("HandleInvoicePaymentFailed", mock.Anything, mock.Anything).Return(applied, nil).Once()

	router := stripe.NewRouter(rec, logger.NewNop())
	_, err := router.Route(context.Background(), "invoice.payment_succeeded", object)
	require.NoError(t, err)
	_, err = router.Route(context.Background(), "invoice.payment_failed", object)
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

func TestRouter_SkipsUnknownAndMalformed(t *testing.T) {
	rec := new(mockReconciler)
	router := stripe.NewRouter(rec, logger.NewNop())

	res, err := router.Route(context.Background(), "payment_intent.created", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)

	res, err = router.Route(context.Background(), "checkout.session.completed", []byte(`{"id": 42`))
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)

	res, err = router.Route(context.Background(), "invoice.payment_failed", []byte(`{"object":"invoice"}`))
	require.NoError(t, err)
	assert.Equal(t, reconciliation.OutcomeSkipped, res.Outcome)

	rec.AssertNotCalled(t, "HandleCheckoutCompleted", mock.Anything, mock.Anything)
}

func TestRouter_PropagatesTransientErrors(t *testing.T) {
	rec := new(mockReconciler)
	rec.On("HandleCheckoutCompleted", mock.Anything, mock.Anything).
		Return(reconciliation.Result{}, errors.New("database unavailable")).Once()

	_, err := stripe.NewRouter(rec, logger.NewNop()).
		Route(context.Background(), "checkout.session.completed", []byte(`{"id":"cs_1"}`))
	assert.Error(t, err)
}

func newFetcher(t *testing.T, handler http.HandlerFunc) *stripe.SubscriptionFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		URL:               stripeapi.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelNull},
	})
	return stripe.NewSubscriptionFetcher(stripe.FetcherConfig{
		SecretKey:       "sk_test_123",
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		Backends:        &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend},
	}, logger.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func stripeError(w http.ResponseWriter, status int, errType string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"type": errType, "message": "test failure"},
	})
}

func TestSubscriptionFetcher(t *testing.T) {
	subscriptionBody := map[string]interface{}{
		"id":                   "sub_1",
		"object":               "subscription",
		"status":               "active",
		"current_period_start": 1717200000,
		"current_period_end":   1719792000,
		"metadata":             map[string]string{"serviceId": "svc_1"},
	}

	t.Run("success", func(t *testing.T) {
		f := newFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/subscriptions/sub_1", r.URL.Path)
			writeJSON(w, http.StatusOK, subscriptionBody)
		})
		snap, err := f.FetchSubscription(context.Background(), "sub_1")
		require.NoError(t, err)
		assert.Equal(t, "active", snap.Status)
		assert.Equal(t, "svc_1", snap.Metadata["serviceId"])
		require.NotNil(t, snap.CurrentPeriodEnd)
		assert.True(t, snap.CurrentPeriodEnd.Equal(time.Unix(1719792000, 0)))
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		f := newFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				stripeError(w, http.StatusInternalServerError, "api_error")
				return
			}
			writeJSON(w, http.StatusOK, subscriptionBody)
		})
		snap, err := f.FetchSubscription(context.Background(), "sub_1")
		require.NoError(t, err)
		assert.Equal(t, "sub_1", snap.ID)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var calls atomic.Int32
		f := newFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			stripeError(w, http.StatusTooManyRequests, "invalid_request_error")
		})
		_, err := f.FetchSubscription(context.Background(), "sub_1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, reconciliation.ErrSubscriptionNotFound)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("not found is reported", func(t *testing.T) {
		f := newFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			stripeError(w, http.StatusNotFound, "invalid_request_error")
		})
		_, err := f.FetchSubscription(context.Background(), "sub_missing")
		assert.ErrorIs(t, err, reconciliation.ErrSubscriptionNotFound)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		f := newFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			stripeError(w, http.StatusUnauthorized, "authentication_error")
		})
		_, err := f.FetchSubscription(context.Background(), "sub_1")
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}
