package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/coinalerts/server/internal/models"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Coin{},
		&models.Alert{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	return ensureActiveAlertIndex(conn)
}

// ensureActiveAlertIndex creates the partial unique index guaranteeing at
// most one active alert per (user, coin, target price). The index converts a
// check-then-insert race into an atomic insert-or-fail; callers treat the
// resulting violation as an expected Conflict.
func ensureActiveAlertIndex(conn *gorm.DB) error {
	var stmt string
	if IsSQLite(conn) {
		stmt = `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_active_target
			ON alerts (user_id, coin_id, target_price)
			WHERE is_active`
	} else {
		stmt = `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_active_target
			ON alerts (user_id, coin_id, target_price)
			WHERE is_active = true`
	}
	if errIndex := conn.Exec(stmt).Error; errIndex != nil {
		return fmt.Errorf("db: create active alert index: %w", errIndex)
	}
	return nil
}
