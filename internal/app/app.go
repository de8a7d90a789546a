package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/coinalerts/server/internal/coingecko"
	"github.com/coinalerts/server/internal/config"
	"github.com/coinalerts/server/internal/db"
	"github.com/coinalerts/server/internal/http/api"
	"github.com/coinalerts/server/internal/mail"
	"github.com/coinalerts/server/internal/ratelimit"
)

// shutdownTimeout bounds how long in-flight requests may drain on stop.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the alert API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	if jwtCfg.Secret == "" {
		return fmt.Errorf("app: jwt secret is required (set `jwt.secret` or env %s)", config.EnvJWTSecret)
	}
	smtpCfg, _ := config.LoadSMTPConfig(configPath)
	geckoCfg, _ := config.LoadCoinGeckoConfig(configPath)
	serverCfg, _ := config.LoadServerConfig(configPath)

	mailer := mail.NewSMTPSender(smtpCfg)
	gecko := coingecko.NewClient(coingecko.Options{
		BaseURL: geckoCfg.BaseURL,
		APIKey:  geckoCfg.APIKey,
		Timeout: geckoCfg.Timeout,
	})

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if serverCfg.RedisURL != "" {
		redisOpts, errParse := redis.ParseURL(serverCfg.RedisURL)
		if errParse != nil {
			return fmt.Errorf("app: parse redis url: %w", errParse)
		}
		limiter = ratelimit.NewRedisLimiter(redis.NewClient(redisOpts), "authlimit")
	}

	if geckoCfg.SyncOnStart {
		if errSeed := SeedCoins(ctx, conn, gecko); errSeed != nil {
			log.WithError(errSeed).Warn("coin catalog sync failed, continuing without it")
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, api.Deps{
		DB:        conn,
		JWT:       jwtCfg,
		Server:    serverCfg,
		Mailer:    mailer,
		CoinGecko: gecko,
		Limiter:   limiter,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Infof("listening on :%d with config=%s", port, configPath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
