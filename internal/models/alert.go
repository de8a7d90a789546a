package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Alert is a user's price-target subscription to one coin.
//
// At most one active alert may exist per (user, coin, target price); the
// invariant is enforced by a partial unique index created in db.Migrate, so a
// concurrent duplicate create fails at the storage layer instead of racing a
// check-then-insert.
type Alert struct {
	ID string `gorm:"type:uuid;primaryKey"` // Opaque alert identifier.

	UserID string `gorm:"type:uuid;not null;index"` // Owning user ID.
	User   User   `gorm:"foreignKey:UserID"`        // Owning user record.

	CoinID          string `gorm:"type:text;not null"` // Canonical coin identifier.
	Symbol          string `gorm:"type:text;not null"` // Display symbol, upper-cased.
	ContractAddress string `gorm:"type:text"`          // Optional token contract address.
	Image           string `gorm:"type:text"`          // Coin thumbnail URL.

	TargetPrice decimal.Decimal `gorm:"type:decimal(24,8);not null"` // Target price, positive.

	IsActive               bool       `gorm:"not null;default:true"`  // Eligible for monitoring.
	MuteEmailNotifications bool       `gorm:"not null;default:false"` // Suppresses notification only.
	TriggeredAt            *time.Time // Set once when the target condition fires.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when none is set.
func (a *Alert) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
