// Package client is a Go client for the public Bookwell booking API.
package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// Availability is the decision for one candidate slot of a professional.
type Availability struct {
	Available      bool      `json:"available"`
	WithinSchedule bool      `json:"within_schedule"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

// LinkResult reports whether a user account was attached to a client.
// Pending means the link is stored until a client with the email exists.
type LinkResult struct {
	Linked         bool   `json:"linked"`
	Pending        bool   `json:"pending"`
	ClientID       string `json:"client_id,omitempty"`
	BookingsLinked int64  `json:"bookings_linked"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error: status=%d type=%s message=%s details=%s", e.StatusCode, e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("api error: status=%d type=%s message=%s", e.StatusCode, e.Type, e.Message)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
