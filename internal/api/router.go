package api

import (
	v1 "github.com/billingsim/billingsim/internal/api/v1"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Subscription *v1.SubscriptionHandler
	Product      *v1.ProductHandler
	Order        *v1.OrderHandler
	Emulator     *v1.EmulatorHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		gin.Recovery(),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	registerPublisherRoutes(router, handlers)
	registerEmulatorRoutes(router, handlers)

	return router
}

// registerPublisherRoutes wires the androidpublisher v3 surface. Custom
// methods ride the final path segment as ":verb" suffixes, so each
// resource needs only a GET and a POST route.
func registerPublisherRoutes(router *gin.Engine, handlers Handlers) {
	apps := router.Group("/androidpublisher/v3/applications/:packageName")
	{
		subscriptions := apps.Group("/purchases/subscriptions/:subscriptionId/tokens")
		{
			subscriptions.GET("/:token", handlers.Subscription.GetSubscription)
			subscriptions.POST("/:token", handlers.Subscription.PostSubscription)
		}

		products := apps.Group("/purchases/products/:productId/tokens")
		{
			products.GET("/:token", handlers.Product.GetPurchase)
			products.POST("/:token", handlers.Product.PostPurchase)
		}

		apps.POST("/orders/:orderId", handlers.Order.RefundOrder)
	}
}

// registerEmulatorRoutes wires the control surface: purchase creation,
// lifecycle triggers, the virtual clock and diagnostics.
func registerEmulatorRoutes(router *gin.Engine, handlers Handlers) {
	emulator := router.Group("/emulator")
	{
		subscriptions := emulator.Group("/subscriptions")
		{
			subscriptions.POST("", handlers.Subscription.CreateSubscription)
			subscriptions.POST("/:token/renew", handlers.Subscription.RenewSubscription)
			subscriptions.POST("/:token/cancel", handlers.Subscription.CancelSubscription)
			subscriptions.POST("/:token/payment-failed", handlers.Subscription.PaymentFailed)
			subscriptions.POST("/:token/payment-recovered", handlers.Subscription.PaymentRecovered)
			subscriptions.POST("/:token/pause", handlers.Subscription.PauseSubscription)
			subscriptions.POST("/:token/resume", handlers.Subscription.ResumeSubscription)
			subscriptions.POST("/:token/defer", handlers.Subscription.DeferSubscription)
			subscriptions.POST("/:token/revoke", handlers.Subscription.RevokeSubscription)
		}

		purchases := emulator.Group("/purchases")
		{
			purchases.POST("", handlers.Product.CreatePurchase)
			purchases.POST("/:token/refund", handlers.Product.RefundPurchase)
		}

		timeGroup := emulator.Group("/time")
		{
			timeGroup.POST("/advance", handlers.Emulator.AdvanceTime)
			timeGroup.POST("/set", handlers.Emulator.SetTime)
			timeGroup.POST("/reset", handlers.Emulator.ResetTime)
		}

		emulator.POST("/reset", handlers.Emulator.Reset)
		emulator.GET("/status", handlers.Emulator.Status)
		emulator.GET("/plans", handlers.Emulator.ListPlans)

		debug := emulator.Group("/debug")
		{
			debug.GET("/subscriptions", handlers.Subscription.ListSubscriptions)
			debug.GET("/products", handlers.Product.ListPurchases)
		}
	}
}
