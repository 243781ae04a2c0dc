package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries the handlers and settings for NewRouter
type RouterConfig struct {
	Capsules  *CapsuleHandler
	Admin     *AdminHandler
	Health    *HealthHandler
	JWTSecret string
	Logger    *slog.Logger
}

// NewRouter builds the gin engine. /api/v1 requires a bearer token only
// when a JWT secret is configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger.With("component", "http")))

	router.GET("/health", cfg.Health.Health)
	router.GET("/charts/:date", cfg.Capsules.GetChart)

	api := router.Group("/api/v1")
	if cfg.JWTSecret != "" {
		api.Use(JWTAuth([]byte(cfg.JWTSecret)))
	}
	api.GET("/charts/:date", cfg.Capsules.GetChart)
	api.POST("/capsules", cfg.Capsules.CreateCapsule)

	if cfg.Admin != nil {
		admin := api.Group("/admin")
		admin.GET("/archive", cfg.Admin.GetArchiveStats)
		admin.DELETE("/charts/:date", cfg.Admin.DeleteChart)
	}

	return router
}
