package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coinalerts/server/internal/coingecko"
	"github.com/coinalerts/server/internal/db"
	"github.com/coinalerts/server/internal/mail"
	"github.com/coinalerts/server/internal/models"
)

// AlertHandler manages price alert lifecycle endpoints.
type AlertHandler struct {
	db     *gorm.DB
	coins  *coingecko.Client
	mailer mail.Sender
}

// NewAlertHandler constructs an AlertHandler.
func NewAlertHandler(conn *gorm.DB, coins *coingecko.Client, mailer mail.Sender) *AlertHandler {
	return &AlertHandler{db: conn, coins: coins, mailer: mailer}
}

// parseAlertID validates the opaque alert identifier format before any
// store access. An unparsable id reads the same as a missing alert.
func parseAlertID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if _, errParse := uuid.Parse(raw); errParse != nil {
		return "", false
	}
	return raw, true
}

// alertJSON renders an alert for API responses.
func alertJSON(a models.Alert) gin.H {
	return gin.H{
		"id":                     a.ID,
		"userId":                 a.UserID,
		"coinId":                 a.CoinID,
		"symbol":                 a.Symbol,
		"contractAddress":        a.ContractAddress,
		"targetPrice":            a.TargetPrice,
		"isActive":               a.IsActive,
		"muteEmailNotifications": a.MuteEmailNotifications,
		"triggeredAt":            a.TriggeredAt,
		"image":                  a.Image,
		"createdAt":              a.CreatedAt,
		"updatedAt":              a.UpdatedAt,
	}
}

// List returns every alert owned by the caller, newest first.
func (h *AlertHandler) List(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var rows []models.Alert
	errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if errFind != nil {
		log.WithError(errFind).Error("list alerts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, alertJSON(row))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "length": len(out), "message": "Fetched alerts", "data": out})
}

// createAlertRequest defines the request body for alert creation.
type createAlertRequest struct {
	CoinID      string          `json:"coinId"`
	Symbol      string          `json:"symbol"`
	TargetPrice decimal.Decimal `json:"targetPrice"`
}

// Create resolves and enriches the coin reference, then inserts a new
// active, untriggered alert. A concurrent duplicate for the same
// (user, coin, target price) fails the insert and surfaces as a conflict.
func (h *AlertHandler) Create(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var body createAlertRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	coinID := strings.TrimSpace(body.CoinID)
	symbol := strings.TrimSpace(body.Symbol)
	if coinID == "" && symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Provide coinId or symbol"})
		return
	}
	if !body.TargetPrice.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Provide a positive targetPrice"})
		return
	}

	ctx := c.Request.Context()

	// Resolve symbol to the canonical coin id via the catalog.
	var catalogCoin *models.Coin
	if coinID == "" {
		var coin models.Coin
		errFind := h.db.WithContext(ctx).Where("symbol = ?", strings.ToLower(symbol)).First(&coin).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Coin not found"})
				return
			}
			log.WithError(errFind).Error("create alert: coin lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}
		catalogCoin = &coin
		coinID = coin.ID
	}

	details, errFetch := h.coins.FetchCoin(ctx, coinID)
	if errFetch != nil {
		switch {
		case errors.Is(errFetch, coingecko.ErrCoinNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Coin not found"})
		case errors.Is(errFetch, coingecko.ErrUpstream):
			log.WithError(errFetch).Warn("create alert: coin data service unavailable")
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Coin data service unavailable"})
		default:
			log.WithError(errFetch).Error("create alert: fetch coin failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		}
		return
	}

	contractAddress := catalogContractAddress(catalogCoin)
	if contractAddress == "" {
		contractAddress = details.ContractAddress
	}

	displaySymbol := strings.ToUpper(details.Symbol)
	if displaySymbol == "" {
		displaySymbol = strings.ToUpper(symbol)
	}

	alert := models.Alert{
		UserID:          userID,
		CoinID:          coinID,
		Symbol:          displaySymbol,
		ContractAddress: contractAddress,
		TargetPrice:     body.TargetPrice,
		Image:           details.Image,
		IsActive:        true,
	}
	if errCreate := h.db.WithContext(ctx).Create(&alert).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "An active alert with this target already exists"})
			return
		}
		log.WithError(errCreate).Error("create alert: insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Alert created successfully", "alert": alertJSON(alert)})
}

// catalogContractAddress picks a contract address from the catalog platforms.
func catalogContractAddress(coin *models.Coin) string {
	if coin == nil || len(coin.Platforms) == 0 {
		return ""
	}
	var platforms map[string]string
	if errUnmarshal := json.Unmarshal(coin.Platforms, &platforms); errUnmarshal != nil {
		return ""
	}
	for _, addr := range platforms {
		if addr = strings.TrimSpace(addr); addr != "" {
			return addr
		}
	}
	return ""
}

// updateAlertRequest defines the request body for price updates.
type updateAlertRequest struct {
	TargetPrice decimal.Decimal `json:"targetPrice"`
}

// UpdatePrice changes the target price of an owned alert in place, leaving
// the active/triggered/muted state untouched.
func (h *AlertHandler) UpdatePrice(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}
	alertID, okID := parseAlertID(c.Param("alertId"))
	if !okID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found (invalid ID format)"})
		return
	}

	var body updateAlertRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}
	if !body.TargetPrice.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Target price must be a positive number"})
		return
	}

	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Updates(map[string]any{"target_price": body.TargetPrice, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "An active alert with this target already exists"})
			return
		}
		log.WithError(res.Error).Error("update alert: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found"})
		return
	}

	var alert models.Alert
	if errFind := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", alertID, userID).First(&alert).Error; errFind != nil {
		log.WithError(errFind).Error("update alert: reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Updated alert successfully", "alert": alertJSON(alert)})
}

// Mute suppresses email notifications for an owned alert. Idempotent.
func (h *AlertHandler) Mute(c *gin.Context) {
	h.setMuted(c, true, "Muted alert successfully")
}

// Unmute re-enables email notifications for an owned alert. Idempotent.
func (h *AlertHandler) Unmute(c *gin.Context) {
	h.setMuted(c, false, "Unmuted alert successfully")
}

// setMuted flips the mute flag scoped to (alert, owner). The flag only
// suppresses notification delivery, never monitoring.
func (h *AlertHandler) setMuted(c *gin.Context, muted bool, message string) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}
	alertID, okID := parseAlertID(c.Param("alertId"))
	if !okID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found (invalid ID format)"})
		return
	}

	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Updates(map[string]any{"mute_email_notifications": muted, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		log.WithError(res.Error).Error("mute alert: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found"})
		return
	}

	var alert models.Alert
	if errFind := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", alertID, userID).First(&alert).Error; errFind != nil {
		log.WithError(errFind).Error("mute alert: reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "alert": alertJSON(alert)})
}

// Delete permanently removes an owned alert.
func (h *AlertHandler) Delete(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}
	alertID, okID := parseAlertID(c.Param("alertId"))
	if !okID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found (invalid ID format)"})
		return
	}

	ctx := c.Request.Context()
	var alert models.Alert
	if errFind := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", alertID, userID).First(&alert).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found"})
			return
		}
		log.WithError(errFind).Error("delete alert: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if errDelete := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", alertID, userID).Delete(&models.Alert{}).Error; errDelete != nil {
		log.WithError(errDelete).Error("delete alert: delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted alert successfully", "alert": alertJSON(alert)})
}

// triggerAlertRequest defines the request body for the monitor trigger call.
type triggerAlertRequest struct {
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

// Trigger marks an alert as fired. The transition is a single conditional
// update (triggered_at IS NULL AND is_active), so re-triggering an already
// fired alert is a no-op. On a real transition the owner is emailed unless
// the alert is muted or the account opted out.
func (h *AlertHandler) Trigger(c *gin.Context) {
	alertID, okID := parseAlertID(c.Param("alertId"))
	if !okID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found (invalid ID format)"})
		return
	}

	var body triggerAlertRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	res := h.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND triggered_at IS NULL AND is_active = ?", alertID, true).
		Updates(map[string]any{"triggered_at": now, "is_active": false, "updated_at": now})
	if res.Error != nil {
		log.WithError(res.Error).Error("trigger alert: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	var alert models.Alert
	if errFind := h.db.WithContext(ctx).Where("id = ?", alertID).First(&alert).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Alert not found"})
			return
		}
		log.WithError(errFind).Error("trigger alert: reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Alert already triggered", "alert": alertJSON(alert)})
		return
	}

	h.notifyTriggered(ctx, alert, body.CurrentPrice)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Alert triggered", "alert": alertJSON(alert)})
}

// notifyTriggered emails the alert owner about a fired alert. Failures are
// logged only; the state transition is never rolled back.
func (h *AlertHandler) notifyTriggered(ctx context.Context, alert models.Alert, currentPrice decimal.Decimal) {
	if alert.MuteEmailNotifications || alert.TriggeredAt == nil {
		return
	}

	var owner models.User
	if errFind := h.db.WithContext(ctx).Where("id = ?", alert.UserID).First(&owner).Error; errFind != nil {
		log.WithError(errFind).WithField("alert", alert.ID).Error("trigger alert: load owner failed")
		return
	}
	if !owner.NotifyEmail {
		return
	}

	subject, htmlBody := mail.AlertEmail(mail.TriggeredAlert{
		CoinID:       alert.CoinID,
		Symbol:       alert.Symbol,
		TargetPrice:  alert.TargetPrice,
		CurrentPrice: currentPrice,
		TriggeredAt:  *alert.TriggeredAt,
	})
	if errSend := h.mailer.Send(owner.Email, subject, htmlBody); errSend != nil {
		log.WithError(errSend).WithField("alert", alert.ID).Error("trigger alert: send mail failed")
	}
}
