package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"facility-monitor-backend/config"
	"facility-monitor-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Device-facing ingest
		api.POST("/measurements/:access_point_id", handler.PostMeasurements)
		api.POST("/timerecords/:access_point_id", handler.PostTimeRecords)
		api.POST("/heartbeat/:access_point_id", handler.PostHeartbeat)

		// Single-click action links from warning mails
		api.GET("/warnings", handler.GetWarningAction)

		api.GET("/rooms", caching, handler.GetRooms)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		// User-facing, behind JWT
		user := api.Group("")
		user.Use(mw.Auth([]byte(cfg.Auth.JWTSecret)))
		{
			user.GET("/notifications", handler.GetNotifications)
			user.DELETE("/notifications/:id", handler.DeleteNotification)
			user.POST("/notifications/:id/confirm", handler.ConfirmNotification)
			user.POST("/notifications/:id/ignore", handler.IgnoreNotification)

			user.GET("/subscriptions", handler.GetSubscriptions)
			user.PUT("/subscriptions", handler.PutSubscription)
			user.DELETE("/subscriptions", handler.DeleteSubscription)
		}
	}

	return r
}
