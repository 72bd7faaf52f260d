package models

import (
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/constants"
)

// SubscriptionModel mirrors the provider subscription. Period bounds are
// whatever the provider last reported.
type SubscriptionModel struct {
	ID                 string  `gorm:"primaryKey;size:40"`
	ExternalID         string  `gorm:"uniqueIndex:uk_subscriptions_external;not null;size:191"`
	ClientID           string  `gorm:"not null;size:40;index:idx_subscriptions_client"`
	ServiceID          string  `gorm:"not null;size:40"`
	PaymentID          *string `gorm:"size:40"`
	Status             string  `gorm:"not null;size:32"`
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool `gorm:"not null;default:false"`
	Version            int  `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}
