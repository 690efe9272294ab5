package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the native-value balance of one address. A blocked wallet
// refuses incoming value, the way a recipient contract may reject a payment.
type Wallet struct {
	Address   string          `gorm:"size:42;primaryKey" json:"address"`
	Balance   decimal.Decimal `gorm:"not null" json:"balance"`
	Blocked   bool            `gorm:"not null" json:"blocked"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
