package db

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coinalerts/server/internal/models"
)

// openTestDB opens a throwaway SQLite database and runs migrations.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func newTestUser(t *testing.T, conn *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", NotifyEmail: true}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected an error for an empty dsn")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	if err := Migrate(conn); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	conn := openTestDB(t)
	newTestUser(t, conn, "dup@example.com")

	second := models.User{Email: "dup@example.com", PasswordHash: "y"}
	err := conn.Create(&second).Error
	if err == nil {
		t.Fatalf("duplicate email insert succeeded")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected a unique violation, got: %v", err)
	}
}

func TestActiveAlertUniqueness(t *testing.T) {
	conn := openTestDB(t)
	user := newTestUser(t, conn, "alerts@example.com")
	price := decimal.RequireFromString("65000")

	first := models.Alert{UserID: user.ID, CoinID: "bitcoin", Symbol: "BTC", TargetPrice: price, IsActive: true}
	if err := conn.Create(&first).Error; err != nil {
		t.Fatalf("create first alert: %v", err)
	}

	dup := models.Alert{UserID: user.ID, CoinID: "bitcoin", Symbol: "BTC", TargetPrice: price, IsActive: true}
	err := conn.Create(&dup).Error
	if err == nil {
		t.Fatalf("duplicate active alert insert succeeded")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected a unique violation, got: %v", err)
	}
}

func TestInactiveDuplicatesAllowed(t *testing.T) {
	conn := openTestDB(t)
	user := newTestUser(t, conn, "history@example.com")
	price := decimal.RequireFromString("65000")

	active := models.Alert{UserID: user.ID, CoinID: "bitcoin", Symbol: "BTC", TargetPrice: price, IsActive: true}
	if err := conn.Create(&active).Error; err != nil {
		t.Fatalf("create active alert: %v", err)
	}

	// Triggered alerts leave the active set, so the same target may be
	// re-created any number of times.
	for i := 0; i < 2; i++ {
		inactive := models.Alert{UserID: user.ID, CoinID: "bitcoin", Symbol: "BTC", TargetPrice: price}
		if err := conn.Create(&inactive).Error; err != nil {
			t.Fatalf("create inactive duplicate %d: %v", i, err)
		}
		if err := conn.Model(&models.Alert{}).Where("id = ?", inactive.ID).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate alert %d: %v", i, err)
		}
	}
}

func TestDifferentTargetsAllowed(t *testing.T) {
	conn := openTestDB(t)
	user := newTestUser(t, conn, "targets@example.com")

	for _, raw := range []string{"60000", "65000", "70000.5"} {
		alert := models.Alert{
			UserID:      user.ID,
			CoinID:      "bitcoin",
			Symbol:      "BTC",
			TargetPrice: decimal.RequireFromString(raw),
			IsActive:    true,
		}
		if err := conn.Create(&alert).Error; err != nil {
			t.Fatalf("create alert at %s: %v", raw, err)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Fatalf("nil error reported as unique violation")
	}
	if !IsUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatalf("gorm.ErrDuplicatedKey not recognized")
	}
	if IsUniqueViolation(gorm.ErrRecordNotFound) {
		t.Fatalf("record-not-found reported as unique violation")
	}
}
