// Package api wires the HTTP routes onto a gin engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vitalsync/vitalsync/internal/aggregate"
	"github.com/vitalsync/vitalsync/internal/config"
	"github.com/vitalsync/vitalsync/internal/credentials"
	"github.com/vitalsync/vitalsync/internal/http/api/handlers"
	"github.com/vitalsync/vitalsync/internal/ratelimit"
	"github.com/vitalsync/vitalsync/internal/syncer"
	"github.com/vitalsync/vitalsync/internal/whoop"
)

// Deps holds everything the route tree needs.
type Deps struct {
	DB         *gorm.DB
	Store      *credentials.Store
	Client     *whoop.Client
	Syncer     *syncer.Syncer
	Aggregator *aggregate.Aggregator
	RateLimit  *ratelimit.Manager
	JWT        config.JWTConfig
	Whoop      config.WhoopConfig
	Sync       config.SyncConfig
}

// RegisterRoutes mounts all endpoints on the engine.
func RegisterRoutes(engine *gin.Engine, deps Deps) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT)
	syncHandler := handlers.NewSyncHandler(deps.Syncer)
	summaryHandler := handlers.NewSummaryHandler(deps.Aggregator)
	connectHandler := handlers.NewConnectHandler(deps.Store, deps.Client, deps.Whoop, deps.JWT)

	v0 := engine.Group("/v0")

	v0.POST("/auth/register", authHandler.Register)
	v0.POST("/auth/login", authHandler.Login)

	// Batch trigger for schedulers; guarded by the shared secret, not a session.
	v0.POST("/sync/run", syncSecretMiddleware(deps.Sync), syncHandler.RunBatch)

	// The OAuth provider calls back without a session; the state token binds
	// the request to a user.
	v0.GET("/whoop/callback", connectHandler.Callback)

	authed := v0.Group("")
	authed.Use(userAuthMiddleware(deps.DB, deps.JWT))

	authed.GET("/whoop/connect", connectHandler.Connect)
	authed.POST("/sync/me", rateLimitMiddleware(deps.RateLimit), syncHandler.SyncMe)
	authed.GET("/summary/:date", summaryHandler.Get)
	authed.POST("/summary/:date/rebuild", rateLimitMiddleware(deps.RateLimit), summaryHandler.Rebuild)
}
