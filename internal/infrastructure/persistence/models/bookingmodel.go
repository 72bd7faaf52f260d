package models

import (
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/constants"
)

// BookingModel represents the database persistence model for bookings.
// SourceRef is unique so each checkout session or invoice books at most once.
type BookingModel struct {
	ID              string    `gorm:"primaryKey;size:40"`
	ProfessionalID  string    `gorm:"not null;size:40;index:idx_bookings_professional_slot,priority:1"`
	Status          string    `gorm:"not null;size:20;index:idx_bookings_professional_slot,priority:2;index:idx_bookings_status_end,priority:1"`
	StartsAt        time.Time `gorm:"not null;index:idx_bookings_professional_slot,priority:3"`
	EndsAt          time.Time `gorm:"not null;index:idx_bookings_status_end,priority:2"`
	DurationMinutes int       `gorm:"not null"`
	ServiceID       string    `gorm:"not null;size:40"`
	ClientID        *string   `gorm:"size:40;index:idx_bookings_client"`
	UserID          *string   `gorm:"size:128"`
	PaymentID       *string   `gorm:"size:40;index:idx_bookings_payment"`
	SubscriptionID  *string   `gorm:"size:40;index:idx_bookings_subscription"`
	SourceRef       *string   `gorm:"uniqueIndex:uk_bookings_source_ref;size:191"`
	Version         int       `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (BookingModel) TableName() string {
	return constants.TableBookings
}
