package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coinalerts/server/internal/coingecko"
	"github.com/coinalerts/server/internal/models"
)

const seedBatchSize = 500

// SeedCoins populates the coin catalog from the metadata service when the
// table is empty. Symbol resolution and search depend on this catalog.
func SeedCoins(ctx context.Context, conn *gorm.DB, gecko *coingecko.Client) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Coin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("app: count coins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	listed, errList := gecko.ListCoins(ctx)
	if errList != nil {
		return fmt.Errorf("app: list coins: %w", errList)
	}

	coins := make([]models.Coin, 0, len(listed))
	for _, entry := range listed {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			continue
		}
		coin := models.Coin{
			ID:     id,
			Symbol: strings.ToLower(entry.Symbol),
			Name:   entry.Name,
		}
		if len(entry.Platforms) > 0 {
			if payload, errMarshal := json.Marshal(entry.Platforms); errMarshal == nil {
				coin.Platforms = datatypes.JSON(payload)
			}
		}
		coins = append(coins, coin)
	}
	if len(coins) == 0 {
		return nil
	}

	errInsert := conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(coins, seedBatchSize).Error
	if errInsert != nil {
		return fmt.Errorf("app: insert coins: %w", errInsert)
	}

	log.Infof("seeded %d coins into catalog", len(coins))
	return nil
}
