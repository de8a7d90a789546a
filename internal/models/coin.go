package models

import (
	"time"

	"gorm.io/datatypes"
)

// Coin is a catalog entry used for symbol resolution and search.
type Coin struct {
	ID     string `gorm:"type:text;primaryKey"`  // CoinGecko coin identifier.
	Symbol string `gorm:"type:text;not null"`    // Ticker symbol, lower-cased.
	Name   string `gorm:"type:text;not null"`    // Display name.

	Platforms datatypes.JSON `gorm:"type:jsonb"` // Platform name to contract address map.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
