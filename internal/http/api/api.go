package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coinalerts/server/internal/coingecko"
	"github.com/coinalerts/server/internal/config"
	"github.com/coinalerts/server/internal/http/api/handlers"
	"github.com/coinalerts/server/internal/mail"
	"github.com/coinalerts/server/internal/ratelimit"
	"github.com/coinalerts/server/internal/security"
)

// Deps bundles the collaborators injected into the API routes.
type Deps struct {
	DB        *gorm.DB
	JWT       config.JWTConfig
	Server    config.ServerConfig
	Mailer    mail.Sender
	CoinGecko *coingecko.Client
	Limiter   ratelimit.Limiter
}

// RegisterRoutes registers all routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	v1 := r.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT, deps.Mailer)
	authGroup := v1.Group("/auth")
	authGroup.Use(rateLimitMiddleware(deps.Limiter, deps.Server.AuthRateLimit))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/forgot-password", authHandler.ForgotPassword)
	authGroup.POST("/verify-otp", authHandler.VerifyOTP)
	authGroup.POST("/reset-password", authHandler.ResetPassword)

	alertHandler := handlers.NewAlertHandler(deps.DB, deps.CoinGecko, deps.Mailer)
	alertGroup := v1.Group("/alerts")
	alertGroup.Use(authMiddleware(deps.JWT))
	alertGroup.GET("", alertHandler.List)
	alertGroup.POST("", alertHandler.Create)
	alertGroup.PATCH("/:alertId/price", alertHandler.UpdatePrice)
	alertGroup.PATCH("/:alertId/mute", alertHandler.Mute)
	alertGroup.PATCH("/:alertId/unmute", alertHandler.Unmute)
	alertGroup.DELETE("/:alertId", alertHandler.Delete)

	coinHandler := handlers.NewCoinHandler(deps.DB)
	coinGroup := v1.Group("/coins")
	coinGroup.Use(authMiddleware(deps.JWT))
	coinGroup.POST("/search", coinHandler.Search)

	cronGroup := v1.Group("/cron")
	cronGroup.Use(cronAuthMiddleware(deps.Server.CronSecret))
	cronGroup.POST("/alerts/:alertId/trigger", alertHandler.Trigger)
}

// authMiddleware validates bearer tokens and loads the caller identity.
func authMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized: no token provided"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized: invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized: empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized: invalid or expired token"})
			return
		}

		c.Set(handlers.CtxUserID, claims.UserID)
		c.Set(handlers.CtxUserEmail, claims.Email)
		c.Next()
	}
}

// cronAuthMiddleware guards the monitor-facing trigger endpoint.
func cronAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(secret) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized: cron access disabled"})
			return
		}
		if c.GetHeader("X-Cron-Secret") != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized: invalid cron secret"})
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware applies a fixed-window per-IP limit to auth routes.
func rateLimitMiddleware(limiter ratelimit.Limiter, cfg config.AuthRateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		result, errAllow := limiter.Allow(c.Request.Context(), c.ClientIP(), cfg.Requests, cfg.Window, time.Now())
		if errAllow != nil {
			// Limiter backend failures never block logins.
			log.WithError(errAllow).Warn("rate limit check failed")
			c.Next()
			return
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many attempts, please try again in 1 minute...",
			})
			return
		}
		c.Next()
	}
}
