package models

import (
	"strconv"
	"time"
)

// Collection holds the constructor state of the asset registry. There is a
// single row; Name and Symbol never change once written.
type Collection struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	Symbol       string    `gorm:"not null" json:"symbol"`
	BaseURI      string    `json:"base_uri"`
	OwnerAddress string    `gorm:"size:42;not null" json:"owner"`
	Address      string    `gorm:"size:42;not null" json:"address"`
	MintedCount  uint64    `gorm:"not null" json:"count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenURI composes the metadata URI of an asset. It is empty while no base
// URI has been configured.
func (c *Collection) TokenURI(assetID uint64) string {
	if c.BaseURI == "" {
		return ""
	}
	return c.BaseURI + strconv.FormatUint(assetID, 10)
}
