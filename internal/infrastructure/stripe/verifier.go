// Package stripe adapts Stripe webhooks and API calls to the reconciler.
package stripe

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79/webhook"
)

// ErrInvalidEvent covers bad signatures, stale timestamps and unparsable
// bodies. Redelivering the same request cannot succeed.
var ErrInvalidEvent = errors.New("invalid stripe event")

// VerifiedEvent is an authenticated delivery. Object is the raw JSON of the
// event's data object.
type VerifiedEvent struct {
	ID     string
	Type   string
	Object []byte
}

type Verifier struct {
	secret string
}

func NewVerifier(webhookSecret string) *Verifier {
	return &Verifier{secret: webhookSecret}
}

// Verify checks the Stripe-Signature header against the raw request body.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (*VerifiedEvent, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidEvent)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.ID == "" || event.Data == nil {
		return nil, fmt.Errorf("%w: event without id or data", ErrInvalidEvent)
	}

	return &VerifiedEvent{
		ID:     event.ID,
		Type:   string(event.Type),
		Object: event.Data.Raw,
	}, nil
}
