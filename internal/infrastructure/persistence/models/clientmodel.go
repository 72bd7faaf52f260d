package models

import (
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/constants"
)

// ClientModel represents the database persistence model for clients.
// Email is unique when present. The external customer id is a lookup key
// only; several clients may carry the same one.
type ClientModel struct {
	ID                 string  `gorm:"primaryKey;size:40"`
	Name               *string `gorm:"size:255"`
	Email              *string `gorm:"uniqueIndex:uk_clients_email;size:255"`
	Phone              *string `gorm:"size:64"`
	ExternalCustomerID *string `gorm:"index:idx_clients_external_customer;size:128"`
	UserID             *string `gorm:"index:idx_clients_user;size:128"`
	Version            int     `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (ClientModel) TableName() string {
	return constants.TableClients
}

// PendingLinkModel stores a site-account link waiting for its client.
type PendingLinkModel struct {
	Email     string `gorm:"primaryKey;size:255"`
	UserID    string `gorm:"not null;size:128"`
	CreatedAt time.Time
}

func (PendingLinkModel) TableName() string {
	return constants.TablePendingLinks
}
