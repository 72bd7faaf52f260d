package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/bookwell-inc/bookwell/internal/shared/constants"
)

// ProfessionalModel represents a bookable professional. Schedule holds the
// weekly working hours as JSON.
type ProfessionalModel struct {
	ID        string  `gorm:"primaryKey;size:40"`
	Name      string  `gorm:"not null;size:255"`
	Email     *string `gorm:"size:255"`
	PushToken *string `gorm:"size:255"`
	Schedule  datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProfessionalModel) TableName() string {
	return constants.TableProfessionals
}

type ServiceModel struct {
	ID              string  `gorm:"primaryKey;size:40"`
	ProfessionalID  string  `gorm:"not null;size:40;index:idx_services_professional"`
	Name            string  `gorm:"not null;size:255"`
	DurationMinutes int     `gorm:"not null"`
	PriceCents      int64   `gorm:"not null"`
	Currency        string  `gorm:"not null;size:10"`
	Recurring       bool    `gorm:"not null;default:false"`
	Interval        *string `gorm:"size:16"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ServiceModel) TableName() string {
	return constants.TableServices
}
