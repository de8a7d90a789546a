package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account stored in the database.
type User struct {
	ID string `gorm:"type:uuid;primaryKey"` // Opaque identity reference.

	Email        string `gorm:"type:text;not null;uniqueIndex"` // Normalized (trimmed, lowercased) email.
	PasswordHash string `gorm:"type:text;not null"`             // Bcrypt password hash, never the plaintext.

	NotifyEmail bool `gorm:"not null;default:true"` // Whether triggered alerts are emailed.

	ResetOtpHash    *string    `gorm:"type:text"` // Bcrypt hash of the pending recovery OTP.
	ResetOtpExpires *time.Time // Absolute expiry of the pending OTP.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when none is set.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
