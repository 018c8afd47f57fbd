package routes

import (
	"github.com/gin-gonic/gin"

	"tokenintel/internal/handlers"
	"tokenintel/internal/middleware"
)

// SetupRouter wires the read-only intelligence API.
func SetupRouter(svc handlers.IntelService) *gin.Engine {
	r := gin.Default()

	r.Any("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	h := handlers.NewIntel(svc)
	api := r.Group("/api")
	api.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             10,
	}))
	{
		api.GET("/whales", h.Whales)
		api.GET("/daily", h.Daily)
		api.GET("/alerts", h.Alerts)
		api.GET("/diagnostics", h.Diagnostics)
	}

	return r
}
