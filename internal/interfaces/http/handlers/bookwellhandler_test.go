package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/bookwell-inc/bookwell/internal/application/availability"
	"github.com/bookwell-inc/bookwell/internal/application/identity"
	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/stripe"
	"github.com/bookwell-inc/bookwell/internal/interfaces/http/handlers/testutil"
	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockIngestUC struct {
	got    *reconciliation.IngestWebhookCommand
	result reconciliation.Result
	err    error
}

func (m *mockIngestUC) Execute(ctx context.Context, cmd reconciliation.IngestWebhookCommand) (reconciliation.Result, error) {
	m.got = &cmd
	return m.result, m.err
}

type mockCheckAvailabilityUC struct {
	got    *availability.CheckAvailabilityQuery
	result *availability.CheckAvailabilityResult
	err    error
}

func (m *mockCheckAvailabilityUC) Execute(ctx context.Context, q availability.CheckAvailabilityQuery) (*availability.CheckAvailabilityResult, error) {
	m.got = &q
	return m.result, m.err
}

type mockLinkUserUC struct {
	result *identity.LinkUserResult
	err    error
}

func (m *mockLinkUserUC) Execute(ctx context.Context, cmd identity.LinkUserCommand) (*identity.LinkUserResult, error) {
	return m.result, m.err
}

// =====================================================================
// Webhook
// =====================================================================

const testWebhookSecret = "whsec_handler_test"

func signedEvent(t *testing.T, id, eventType string, object map[string]any) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": "2024-06-20",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   raw,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func postWebhook(h *WebhookHandler, payload []byte, signature string) (int, testutil.APIResponse) {
	c, w := testutil.NewRawTestContext(http.MethodPost, "/api/v1/webhooks/stripe", payload, map[string]string{
		"Stripe-Signature": signature,
	})
	h.HandleStripe(c)

	var resp testutil.APIResponse
	_ = testutil.ParseResponse(w, &resp)
	return w.Code, resp
}

func TestWebhookHandler_Applied(t *testing.T) {
	payload, sig := signedEvent(t, "evt_1", "checkout.session.completed", map[string]any{"id": "cs_1", "object": "checkout.session"})
	uc := &mockIngestUC{result: reconciliation.Result{Outcome: reconciliation.OutcomeApplied}}
	h := NewWebhookHandler(stripe.NewVerifier(testWebhookSecret), uc, logger.NewNop())

	code, resp := postWebhook(h, payload, sig)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	require.NotNil(t, uc.got)
	assert.Equal(t, "stripe", uc.got.Provider)
	assert.Equal(t, "evt_1", uc.got.EventID)
	assert.Equal(t, "checkout.session.completed", uc.got.EventType)
	assert.JSONEq(t, `{"id":"cs_1","object":"checkout.session"}`, string(uc.got.Payload))
}

func TestWebhookHandler_SkippedAndDuplicateAcknowledge(t *testing.T) {
	for _, outcome := range []reconciliation.Outcome{reconciliation.OutcomeSkipped, reconciliation.OutcomeDuplicate} {
		t.Run(string(outcome), func(t *testing.T) {
			payload, sig := signedEvent(t, "evt_2", "invoice.payment_succeeded", map[string]any{"id": "in_1"})
			uc := &mockIngestUC{result: reconciliation.Result{Outcome: outcome, Reason: "because"}}
			h := NewWebhookHandler(stripe.NewVerifier(testWebhookSecret), uc, logger.NewNop())

			code, resp := postWebhook(h, payload, sig)
			assert.Equal(t, http.StatusOK, code)

			var result reconciliation.Result
			require.NoError(t, json.Unmarshal(resp.Data, &result))
			assert.Equal(t, outcome, result.Outcome)
		})
	}
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	payload, _ := signedEvent(t, "evt_3", "checkout.session.completed", map[string]any{"id": "cs_1"})
	uc := &mockIngestUC{}
	h := NewWebhookHandler(stripe.NewVerifier(testWebhookSecret), uc, logger.NewNop())

	code, resp := postWebhook(h, payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Nil(t, uc.got, "unverified events never reach the ledger")
}

func TestWebhookHandler_TransientFailureAsksForRedelivery(t *testing.T) {
	payload, sig := signedEvent(t, "evt_4", "checkout.session.completed", map[string]any{"id": "cs_1"})
	uc := &mockIngestUC{err: fmt.Errorf("db unavailable")}
	h := NewWebhookHandler(stripe.NewVerifier(testWebhookSecret), uc, logger.NewNop())

	code, resp := postWebhook(h, payload, sig)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, resp.Success)
}

// =====================================================================
// Availability
// =====================================================================

func TestAvailabilityHandler_CheckAvailability(t *testing.T) {
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	uc := &mockCheckAvailabilityUC{result: &availability.CheckAvailabilityResult{
		Available: true, WithinSchedule: true, Start: start, End: start.Add(30 * time.Minute),
	}}
	h := NewAvailabilityHandler(uc, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/professionals/pro_1/availability", nil)
	testutil.SetURLParam(c, "id", "pro_1")
	testutil.SetQueryParams(c, map[string]string{"start": start.Format(time.RFC3339), "duration": "30"})

	h.CheckAvailability(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, "pro_1", uc.got.ProfessionalID)
	assert.True(t, start.Equal(uc.got.Start))
	assert.Equal(t, 30, uc.got.DurationMinutes)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, true, data["available"])
}

func TestAvailabilityHandler_BadQuery(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{"missing start", map[string]string{"duration": "30"}},
		{"bad start", map[string]string{"start": "tomorrow", "duration": "30"}},
		{"bad duration", map[string]string{"start": "2024-06-03T10:00:00Z", "duration": "half"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockCheckAvailabilityUC{}
			h := NewAvailabilityHandler(uc, logger.NewNop())
			c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/professionals/pro_1/availability", nil)
			testutil.SetURLParam(c, "id", "pro_1")
			testutil.SetQueryParams(c, tt.params)

			h.CheckAvailability(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, uc.got)
		})
	}
}

func TestAvailabilityHandler_UnknownProfessional(t *testing.T) {
	uc := &mockCheckAvailabilityUC{err: apperrors.NewNotFoundError("professional not found")}
	h := NewAvailabilityHandler(uc, logger.NewNop())
	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/professionals/nope/availability", nil)
	testutil.SetURLParam(c, "id", "nope")
	testutil.SetQueryParams(c, map[string]string{"start": "2024-06-03T10:00:00Z", "duration": "30"})

	h.CheckAvailability(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =====================================================================
// Client link
// =====================================================================

func TestClientHandler_LinkUser(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		uc         *mockLinkUserUC
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "linked",
			body:       map[string]string{"email": "ana@example.com", "user_id": "usr_1"},
			uc:         &mockLinkUserUC{result: &identity.LinkUserResult{Linked: true, ClientID: "cli_1", BookingsLinked: 2}},
			wantStatus: http.StatusOK,
			wantMsg:    "user linked",
		},
		{
			name:       "pending",
			body:       map[string]string{"email": "new@example.com", "user_id": "usr_2"},
			uc:         &mockLinkUserUC{result: &identity.LinkUserResult{Pending: true}},
			wantStatus: http.StatusOK,
			wantMsg:    "link pending until the client exists",
		},
		{
			name:       "missing fields",
			body:       map[string]string{"email": "ana@example.com"},
			uc:         &mockLinkUserUC{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "use case validation",
			body:       map[string]string{"email": "not-an-email", "user_id": "usr_1"},
			uc:         &mockLinkUserUC{err: apperrors.NewValidationError("Validation failed", "email must be a valid email address")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "internal failure",
			body:       map[string]string{"email": "ana@example.com", "user_id": "usr_1"},
			uc:         &mockLinkUserUC{err: errors.New("db gone")},
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewClientHandler(tt.uc, logger.NewNop())
			c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/clients/link", tt.body)

			h.LinkUser(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			assert.Equal(t, tt.wantStatus == http.StatusOK, resp.Success)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	c, w := testutil.NewTestContext(http.MethodGet, "/healthz", nil)
	HealthCheck(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
