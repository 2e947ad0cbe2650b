// Package app boots the server: configuration, database, sync pipeline and
// HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vitalsync/vitalsync/internal/aggregate"
	"github.com/vitalsync/vitalsync/internal/config"
	"github.com/vitalsync/vitalsync/internal/credentials"
	"github.com/vitalsync/vitalsync/internal/db"
	"github.com/vitalsync/vitalsync/internal/http/api"
	"github.com/vitalsync/vitalsync/internal/ratelimit"
	"github.com/vitalsync/vitalsync/internal/syncer"
	"github.com/vitalsync/vitalsync/internal/whoop"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the sync server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	whoopCfg, _ := config.LoadWhoopConfig(configPath)
	syncCfg, _ := config.LoadSyncConfig(configPath)
	if jwtCfg.Secret == "" {
		return errors.New("app: missing jwt secret")
	}

	store := credentials.NewStore(conn)
	tokens := whoop.NewTokenSource(store, whoopCfg)
	client := whoop.NewClient(whoopCfg.APIBaseURL)
	whoopSyncer := syncer.New(conn, store, tokens, client, syncCfg.Interval, syncCfg.WindowDays)
	aggregator := aggregate.New(conn)
	limiter := ratelimit.NewManager(func() config.RateLimitConfig {
		rateCfg, _ := config.LoadRateLimitConfig(configPath)
		return rateCfg
	}, nil, nil)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, api.Deps{
		DB:         conn,
		Store:      store,
		Client:     client,
		Syncer:     whoopSyncer,
		Aggregator: aggregator,
		RateLimit:  limiter,
		JWT:        jwtCfg,
		Whoop:      whoopCfg,
		Sync:       syncCfg,
	})

	whoopSyncer.Start(ctx)

	if defaultPort <= 0 {
		defaultPort = 8318
	}
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultPort),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	return <-errCh
}
