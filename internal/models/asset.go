package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetState is the fractionalization state of an asset.
type AssetState string

const (
	AssetStateWhole          AssetState = "whole"
	AssetStateFractionalized AssetState = "fractionalized"
	AssetStateSoldOut        AssetState = "sold_out"
)

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition: whole -> fractionalized -> sold_out.
func (s AssetState) CanTransitionTo(next AssetState) bool {
	switch s {
	case AssetStateWhole:
		return next == AssetStateFractionalized
	case AssetStateFractionalized:
		return next == AssetStateSoldOut
	}
	return false
}

// Asset is a uniquely numbered collectible in the registry.
//
// Decimal columns here and in the other models carry no SQL type tag. gorm
// derives text from decimal.Decimal's Valuer, so auto-migrated sqlite keeps
// every fractional digit; the postgres schema in migrations/ declares
// NUMERIC(78, 18).
type Asset struct {
	ID                 uint64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OwnerAddress       string          `gorm:"size:42;not null;index" json:"owner"`
	Price              decimal.Decimal `gorm:"not null" json:"price"`
	State              AssetState      `gorm:"size:20;not null" json:"state"`
	SaleDisabled       bool            `gorm:"not null" json:"sale_disabled"`
	ShareLedgerAddress *string         `gorm:"size:42;uniqueIndex" json:"share_ledger,omitempty"`
	SharesAmount       uint64          `gorm:"not null" json:"shares_amount"`
	ShareValue         decimal.Decimal `gorm:"not null" json:"share_value"`
	TokenURI           string          `gorm:"-" json:"token_uri"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsFractionalized reports whether a share ledger exists for the asset.
func (a *Asset) IsFractionalized() bool {
	return a.ShareLedgerAddress != nil
}

// OwnerIndexEntry records that an owner minted an asset. Position keeps the
// per-owner insertion order.
type OwnerIndexEntry struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	OwnerAddress string    `gorm:"size:42;not null;uniqueIndex:uq_owner_index_position,priority:1" json:"owner"`
	Position     uint64    `gorm:"not null;uniqueIndex:uq_owner_index_position,priority:2" json:"position"`
	AssetID      uint64    `gorm:"not null;uniqueIndex" json:"asset_id"`
	CreatedAt    time.Time `json:"created_at"`
}
