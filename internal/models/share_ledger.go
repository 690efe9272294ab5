package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareLedger is the fungible share pool created when an asset is fractionalized.
type ShareLedger struct {
	Address      string    `gorm:"size:42;primaryKey" json:"address"`
	AssetID      uint64    `gorm:"not null;uniqueIndex" json:"asset_id"`
	Name         string    `gorm:"not null" json:"name"`
	Symbol       string    `gorm:"not null" json:"symbol"`
	TotalSupply  uint64    `gorm:"not null" json:"total_supply"`
	OwnerAddress string    `gorm:"size:42;not null" json:"owner"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShareBalance is one holder's balance in a share ledger.
type ShareBalance struct {
	LedgerAddress string    `gorm:"size:42;primaryKey" json:"ledger"`
	Holder        string    `gorm:"size:42;primaryKey" json:"holder"`
	Units         uint64    `gorm:"not null" json:"units"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SharePurchase is the receipt of a completed share purchase.
type SharePurchase struct {
	Base
	AssetID      uint64          `gorm:"not null;index" json:"asset_id"`
	BuyerAddress string          `gorm:"size:42;not null;index" json:"buyer"`
	OwnerAddress string          `gorm:"size:42;not null" json:"owner"`
	Units        uint64          `gorm:"not null" json:"units"`
	ShareValue   decimal.Decimal `gorm:"not null" json:"share_value"`
	Payment      decimal.Decimal `gorm:"not null" json:"payment"`
	Forwarded    decimal.Decimal `gorm:"not null" json:"forwarded"`
	Refunded     decimal.Decimal `gorm:"not null" json:"refunded"`
	SoldOut      bool            `gorm:"not null" json:"sold_out"`
}
