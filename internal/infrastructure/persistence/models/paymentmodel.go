package models

import (
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/constants"
)

// PaymentModel stores one provider payment. ExternalID is the checkout
// session id.
type PaymentModel struct {
	ID          string  `gorm:"primaryKey;size:40"`
	ExternalID  string  `gorm:"uniqueIndex:uk_payments_external;not null;size:191"`
	ClientID    *string `gorm:"size:40;index:idx_payments_client"`
	AmountCents int64   `gorm:"not null"`
	Currency    string  `gorm:"not null;size:10"`
	Status      string  `gorm:"not null;size:20"`
	PaymentType string  `gorm:"not null;size:20"`
	PaidAt      *time.Time
	Version     int `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PaymentModel) TableName() string {
	return constants.TablePayments
}
