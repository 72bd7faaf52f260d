package catalog

import (
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/id"
)

// Professional performs services and owns a calendar of bookings.
type Professional struct {
	id        string
	name      string
	email     *string
	pushToken *string
	schedule  WeeklySchedule
	createdAt time.Time
	updatedAt time.Time
}

func NewProfessional(name string, schedule WeeklySchedule) (*Professional, error) {
	if name == "" {
		return nil, fmt.Errorf("professional name is required")
	}
	if schedule == nil {
		schedule = WeeklySchedule{}
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weekly schedule: %w", err)
	}
	now := biztime.NowUTC()
	return &Professional{
		id:        id.New(id.PrefixProfessional),
		name:      name,
		schedule:  schedule,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// SetContact sets where notifications for this professional go.
func (p *Professional) SetContact(email, pushToken string) {
	if email != "" {
		p.email = &email
	}
	if pushToken != "" {
		p.pushToken = &pushToken
	}
	p.updatedAt = biztime.NowUTC()
}

// WorksDuring reports whether [start, end) lies within the weekly schedule in
// the business timezone.
func (p *Professional) WorksDuring(start, end time.Time) bool {
	return p.schedule.Covers(start, end, biztime.Location())
}

func (p *Professional) ID() string               { return p.id }
func (p *Professional) Name() string             { return p.name }
func (p *Professional) Email() *string           { return p.email }
func (p *Professional) PushToken() *string       { return p.pushToken }
func (p *Professional) Schedule() WeeklySchedule { return p.schedule }
func (p *Professional) CreatedAt() time.Time     { return p.createdAt }
func (p *Professional) UpdatedAt() time.Time     { return p.updatedAt }

func ReconstructProfessional(
	professionalID, name string,
	email, pushToken *string,
	schedule WeeklySchedule,
	createdAt, updatedAt time.Time,
) *Professional {
	return &Professional{
		id:        professionalID,
		name:      name,
		email:     email,
		pushToken: pushToken,
		schedule:  schedule,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}
