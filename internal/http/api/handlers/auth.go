package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coinalerts/server/internal/config"
	"github.com/coinalerts/server/internal/db"
	"github.com/coinalerts/server/internal/mail"
	"github.com/coinalerts/server/internal/models"
	"github.com/coinalerts/server/internal/security"
)

const minPasswordLength = 6

// AuthHandler manages registration, login, and the OTP recovery flow.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
	mailer mail.Sender
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(conn *gorm.DB, jwtCfg config.JWTConfig, mailer mail.Sender) *AuthHandler {
	return &AuthHandler{db: conn, jwtCfg: jwtCfg, mailer: mailer}
}

// normalizeEmail trims and lowercases an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// registerRequest defines the request body for registration.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and returns a bearer token.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	email := normalizeEmail(body.Email)
	if email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
		return
	}
	if len(body.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Password must be at least 6 characters"})
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	// The unique index on email is the authority here: a concurrent
	// duplicate registration fails the insert instead of racing a lookup.
	user := models.User{Email: email, PasswordHash: hash, NotifyEmail: true}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Email already registered"})
			return
		}
		log.WithError(errCreate).Error("register: create user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	token, errToken := security.SignUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, user.ID, user.Email)
	if errToken != nil {
		log.WithError(errToken).Error("register: sign token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   token,
		"user":    gin.H{"id": user.ID, "email": user.Email},
	})
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	email := normalizeEmail(body.Email)
	if email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No user found"})
			return
		}
		log.WithError(errFind).Error("login: query user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	if !security.CheckPassword(user.PasswordHash, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	token, errToken := security.SignUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, user.ID, user.Email)
	if errToken != nil {
		log.WithError(errToken).Error("login: sign token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    gin.H{"id": user.ID, "email": user.Email},
	})
}

// otpSentMessage is returned whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
const otpSentMessage = "OTP sent to your email for changing password"

// forgotPasswordRequest defines the request body for recovery requests.
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a recovery OTP when the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var body forgotPasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	email := normalizeEmail(body.Email)
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email is required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": otpSentMessage})
			return
		}
		log.WithError(errFind).Error("forgot password: query user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process request"})
		return
	}

	code, errGen := security.GenerateOTP()
	if errGen != nil {
		log.WithError(errGen).Error("forgot password: generate otp failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process request"})
		return
	}
	hash, errHash := security.HashOTP(code)
	if errHash != nil {
		log.WithError(errHash).Error("forgot password: hash otp failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process request"})
		return
	}

	expires := time.Now().UTC().Add(security.OTPValidity)
	// Overwrites any prior pending OTP: at most one per user at a time.
	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"reset_otp_hash":    hash,
			"reset_otp_expires": expires,
			"updated_at":        time.Now().UTC(),
		}).Error
	if errUpdate != nil {
		log.WithError(errUpdate).Error("forgot password: store otp failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process request"})
		return
	}

	// Delivery failure does not undo the issued OTP.
	subject, htmlBody := mail.OTPEmail(code, security.OTPValidity)
	if errSend := h.mailer.Send(user.Email, subject, htmlBody); errSend != nil {
		log.WithError(errSend).WithField("email", user.Email).Error("forgot password: send otp mail failed")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": otpSentMessage})
}

// verifyOTPRequest defines the request body for OTP verification.
type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP checks a recovery passcode without consuming it, so the client
// does not need a fresh code between the verify and reset steps.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var body verifyOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	email := normalizeEmail(body.Email)
	if email == "" || strings.TrimSpace(body.OTP) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email and OTP are required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid OTP"})
			return
		}
		log.WithError(errFind).Error("verify otp: query user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to verify OTP"})
		return
	}

	if !security.CheckOTP(user.ResetOtpHash, user.ResetOtpExpires, body.OTP, time.Now().UTC()) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired OTP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified successfully"})
}

// resetPasswordRequest defines the request body for completing recovery.
type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword re-validates the OTP, replaces the password hash, and clears
// the pending OTP state in the same update. Clearing here is the only point
// at which a recovery cycle fully terminates.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var body resetPasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	email := normalizeEmail(body.Email)
	if email == "" || strings.TrimSpace(body.OTP) == "" || body.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email, OTP, and newPassword are required"})
		return
	}
	if len(body.NewPassword) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Password must be at least 6 characters"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
			return
		}
		log.WithError(errFind).Error("reset password: query user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to reset password"})
		return
	}

	if user.ResetOtpHash == nil || user.ResetOtpExpires == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}
	if !security.CheckOTP(user.ResetOtpHash, user.ResetOtpExpires, body.OTP, time.Now().UTC()) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired OTP"})
		return
	}

	hash, errHash := security.HashPassword(body.NewPassword)
	if errHash != nil {
		log.WithError(errHash).Error("reset password: hash failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to reset password"})
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"password_hash":     hash,
			"reset_otp_hash":    nil,
			"reset_otp_expires": nil,
			"updated_at":        time.Now().UTC(),
		}).Error
	if errUpdate != nil {
		log.WithError(errUpdate).Error("reset password: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset successfully"})
}
