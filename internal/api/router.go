// Package api contains the HTTP handlers and routing for the order service.
package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode, adminAPIKey string) *gin.Engine {
	// Set Gin mode
	gin.SetMode(ginMode)

	// Create router and apply middleware
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check endpoint (no auth required)
	router.GET("/health", handler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("/checkout", handler.CreateCheckout)
			payments.GET("/verify", handler.VerifyPayment)
		}

		// User-facing order routes. The upstream gateway authenticates the
		// caller and injects X-User-ID; guest orders carry no user id.
		ordersGroup := v1.Group("/orders")
		{
			ordersGroup.GET("", handler.ListMyOrders)
			ordersGroup.GET("/:number", handler.GetOrder)
			ordersGroup.GET("/:number/subscription", handler.SubscriptionStatus)
			ordersGroup.POST("/:number/cancel", handler.CancelSubscription)
		}

		admin := v1.Group("/admin")
		admin.Use(AdminAuthMiddleware(adminAPIKey))
		{
			admin.GET("/orders", handler.ListAllOrders)
			admin.PATCH("/orders/:number/status", handler.UpdateStatus)
		}
	}

	// Webhook endpoint, called by Mercado Pago - no JWT required.
	// Security is handled by validating the webhook signature.
	router.POST("/webhook", handler.HandleWebhook)

	return router
}
