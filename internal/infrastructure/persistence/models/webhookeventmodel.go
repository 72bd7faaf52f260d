package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/bookwell-inc/bookwell/internal/shared/constants"
)

// WebhookEventModel is one entry of the delivery ledger, unique per provider
// event id.
type WebhookEventModel struct {
	ID          string         `gorm:"primaryKey;size:40"`
	Provider    string         `gorm:"not null;size:32;uniqueIndex:uk_webhook_events_provider_event,priority:1"`
	EventID     string         `gorm:"not null;size:191;uniqueIndex:uk_webhook_events_provider_event,priority:2"`
	EventType   string         `gorm:"not null;size:128"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      string         `gorm:"not null;size:20;index:idx_webhook_events_status_processed,priority:1"`
	Outcome     string         `gorm:"size:20"`
	LastError   string         `gorm:"type:text"`
	Attempts    int            `gorm:"not null;default:0"`
	ReceivedAt  time.Time      `gorm:"not null"`
	ProcessedAt *time.Time     `gorm:"index:idx_webhook_events_status_processed,priority:2"`
}

func (WebhookEventModel) TableName() string {
	return constants.TableWebhookEvents
}

// All lists every persistence model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&ClientModel{},
		&PendingLinkModel{},
		&ProfessionalModel{},
		&ServiceModel{},
		&PaymentModel{},
		&SubscriptionModel{},
		&BookingModel{},
		&WebhookEventModel{},
	}
}
