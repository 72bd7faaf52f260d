package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/professionals/pro-1/availability", r.URL.Path)
		assert.Equal(t, "2024-06-03T10:00:00Z", r.URL.Query().Get("start"))
		assert.Equal(t, "45", r.URL.Query().Get("duration"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"available":true,"within_schedule":true,"start":"2024-06-03T10:00:00Z","end":"2024-06-03T10:45:00Z"}}`))
	}))
	defer srv.Close()

	start := time.Date(2024, 6, 3, 7, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	got, err := NewClient(srv.URL+"/").CheckAvailability(context.Background(), "pro-1", start, 45*time.Minute)

	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.True(t, got.WithinSchedule)
	assert.Equal(t, 45*time.Minute, got.End.Sub(got.Start))
}

func TestLinkUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])
		assert.Equal(t, "usr_ana", body["user_id"])

		_, _ = w.Write([]byte(`{"success":true,"message":"link pending until the client exists","data":{"linked":false,"pending":true,"bookings_linked":0}}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).LinkUser(context.Background(), "ana@example.com", "usr_ana")

	require.NoError(t, err)
	assert.True(t, got.Pending)
	assert.False(t, got.Linked)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		notFound    bool
		rateLimited bool
		wantType    string
	}{
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"success":false,"error":{"type":"not_found","message":"professional not found"}}`,
			notFound: true,
			wantType: "not_found",
		},
		{
			name:        "rate limited",
			status:      http.StatusTooManyRequests,
			body:        `{"success":false,"error":{"type":"error","message":"rate limit exceeded, please try again later"}}`,
			rateLimited: true,
			wantType:    "error",
		},
		{
			name:   "non json body",
			status: http.StatusBadGateway,
			body:   `upstream down`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).CheckAvailability(context.Background(), "pro-1", time.Now(), time.Hour)
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.rateLimited, IsRateLimited(err))
		})
	}
}
