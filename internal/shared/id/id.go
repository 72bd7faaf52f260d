// Package id mints prefixed entity identifiers such as "bk_3f2a...".
package id

import (
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixBooking      = "bk"
	PrefixClient       = "cl"
	PrefixPayment      = "pay"
	PrefixSubscription = "sbs"
	PrefixProfessional = "pro"
	PrefixService      = "svc"
	PrefixWebhookEvent = "whe"
)

// New returns prefix + "_" + a random UUID without dashes.
func New(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HasPrefix reports whether s was minted with prefix.
func HasPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix+"_") && len(s) > len(prefix)+1
}
