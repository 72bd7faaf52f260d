package http

import (
	"github.com/gin-gonic/gin"

	"github.com/bookwell-inc/bookwell/internal/interfaces/http/handlers"
	"github.com/bookwell-inc/bookwell/internal/interfaces/http/middleware"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.RequestID())
	c.engine.Use(middleware.Logger(c.log))
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.SecurityHeaders())
	c.engine.Use(middleware.CORS(c.allowedOrigins))

	c.engine.GET("/healthz", handlers.HealthCheck)

	v1 := c.engine.Group("/api/v1")
	{
		// Provider deliveries are not rate limited.
		v1.POST("/webhooks/stripe", c.webhookHandler.HandleStripe)

		public := v1.Group("")
		if c.rateLimiter != nil {
			public.Use(c.rateLimiter.Limit())
		}
		public.GET("/professionals/:id/availability", c.availabilityHandler.CheckAvailability)
		public.POST("/clients/link", c.clientHandler.LinkUser)
	}
}

// Engine returns the Gin engine
func (c *Container) Engine() *gin.Engine {
	return c.engine
}
