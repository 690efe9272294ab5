package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for tables keyed by a generated identifier
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a time-ordered UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id.String()
	}
	return nil
}

// All lists every model owned by the ledger, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Wallet{},
		&Collection{},
		&Asset{},
		&OwnerIndexEntry{},
		&ShareLedger{},
		&ShareBalance{},
		&SharePurchase{},
		&AuditLog{},
	}
}
