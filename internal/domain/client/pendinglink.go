package client

import (
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
)

// PendingLink records that a site account claimed an email before any Client
// with that email existed. It is consumed when the Client is created.
type PendingLink struct {
	email     string
	userID    string
	createdAt time.Time
}

func NewPendingLink(email, userID string) (*PendingLink, error) {
	if email == "" || userID == "" {
		return nil, fmt.Errorf("pending link requires email and user ID")
	}
	return &PendingLink{email: email, userID: userID, createdAt: biztime.NowUTC()}, nil
}

func ReconstructPendingLink(email, userID string, createdAt time.Time) *PendingLink {
	return &PendingLink{email: email, userID: userID, createdAt: createdAt}
}

func (l *PendingLink) Email() string        { return l.email }
func (l *PendingLink) UserID() string       { return l.userID }
func (l *PendingLink) CreatedAt() time.Time { return l.createdAt }
