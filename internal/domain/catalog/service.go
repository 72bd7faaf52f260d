package catalog

import (
	"fmt"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/id"
)

// Service is a bookable offering.
type Service struct {
	id              string
	professionalID  string
	name            string
	durationMinutes int
	priceCents      int64
	currency        string
	recurring       bool
	// interval is the billing interval of recurring services ("week", "month").
	interval  string
	createdAt time.Time
	updatedAt time.Time
}

func NewService(professionalID, name string, durationMinutes int, priceCents int64, currency string) (*Service, error) {
	if name == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if durationMinutes < 1 {
		return nil, fmt.Errorf("service duration must be at least 1 minute")
	}
	if priceCents < 0 {
		return nil, fmt.Errorf("service price cannot be negative")
	}
	now := biztime.NowUTC()
	return &Service{
		id:              id.New(id.PrefixService),
		professionalID:  professionalID,
		name:            name,
		durationMinutes: durationMinutes,
		priceCents:      priceCents,
		currency:        currency,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// MakeRecurring marks the service as sold by subscription.
func (s *Service) MakeRecurring(interval string) error {
	switch interval {
	case "week", "month":
	default:
		return fmt.Errorf("unsupported billing interval %q", interval)
	}
	s.recurring = true
	s.interval = interval
	s.updatedAt = biztime.NowUTC()
	return nil
}

func (s *Service) ID() string             { return s.id }
func (s *Service) ProfessionalID() string { return s.professionalID }
func (s *Service) Name() string           { return s.name }
func (s *Service) DurationMinutes() int   { return s.durationMinutes }
func (s *Service) PriceCents() int64      { return s.priceCents }
func (s *Service) Currency() string       { return s.currency }
func (s *Service) IsRecurring() bool      { return s.recurring }
func (s *Service) Interval() string       { return s.interval }
func (s *Service) CreatedAt() time.Time   { return s.createdAt }
func (s *Service) UpdatedAt() time.Time   { return s.updatedAt }

func ReconstructService(
	serviceID, professionalID, name string,
	durationMinutes int,
	priceCents int64,
	currency string,
	recurring bool,
	interval string,
	createdAt, updatedAt time.Time,
) *Service {
	return &Service{
		id:              serviceID,
		professionalID:  professionalID,
		name:            name,
		durationMinutes: durationMinutes,
		priceCents:      priceCents,
		currency:        currency,
		recurring:       recurring,
		interval:        interval,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}
