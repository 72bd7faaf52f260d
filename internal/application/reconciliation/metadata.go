package reconciliation

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

// Metadata is the typed form of the key/value bag the checkout creator
// attaches to provider objects. Every field is optional at this level.
type Metadata struct {
	ProfessionalID string `mapstructure:"professionalId"`
	ServiceID      string `mapstructure:"serviceId"`
	Date           string `mapstructure:"date"`
	UserID         string `mapstructure:"userId"`
}

// BookingRequest is a validated request to occupy a slot.
type BookingRequest struct {
	ProfessionalID string
	ServiceID      string
	StartsAt       time.Time
}

type bookingFields struct {
	ProfessionalID string `mapstructure:"professionalId" validate:"required"`
	ServiceID      string `mapstructure:"serviceId" validate:"required"`
	Date           string `mapstructure:"date" validate:"required"`
}

// ParseMetadata decodes the provider bag. Unknown keys are ignored.
func ParseMetadata(raw map[string]string) (Metadata, error) {
	var md Metadata
	if len(raw) == 0 {
		return md, nil
	}
	if err := mapstructure.Decode(raw, &md); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return md, nil
}

// HasSlot reports whether the bag asks for a booking at all.
func (m Metadata) HasSlot() bool {
	return m.ProfessionalID != "" || m.Date != ""
}

// BookingRequest validates the booking fields. fallbackServiceID is used when
// the bag names no service (renewal invoices carry only professional and date).
func (m Metadata) BookingRequest(fallbackServiceID string) (*BookingRequest, error) {
	fields := bookingFields{
		ProfessionalID: m.ProfessionalID,
		ServiceID:      m.ServiceID,
		Date:           m.Date,
	}
	if fields.ServiceID == "" {
		fields.ServiceID = fallbackServiceID
	}
	if err := utils.ValidateStruct(fields); err != nil {
		return nil, err
	}

	startsAt, err := biztime.ParseMetadataTime(fields.Date)
	if err != nil {
		return nil, err
	}

	return &BookingRequest{
		ProfessionalID: fields.ProfessionalID,
		ServiceID:      fields.ServiceID,
		StartsAt:       startsAt,
	}, nil
}

// LogFields flattens the bag for structured logs.
func (m Metadata) LogFields() []interface{} {
	return []interface{}{
		"meta_professional_id", m.ProfessionalID,
		"meta_service_id", m.ServiceID,
		"meta_date", m.Date,
		"meta_user_id", m.UserID,
	}
}
