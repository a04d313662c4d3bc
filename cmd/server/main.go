package main

import (
	"context"
	"time"

	"github.com/billingsim/billingsim/internal/api"
	v1 "github.com/billingsim/billingsim/internal/api/v1"
	"github.com/billingsim/billingsim/internal/cache"
	"github.com/billingsim/billingsim/internal/clock"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/domain/catalog"
	"github.com/billingsim/billingsim/internal/httpclient"
	"github.com/billingsim/billingsim/internal/logger"
	pubsubRouter "github.com/billingsim/billingsim/internal/pubsub/router"
	"github.com/billingsim/billingsim/internal/repository/memory"
	"github.com/billingsim/billingsim/internal/rtdn"
	"github.com/billingsim/billingsim/internal/service"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Virtual clock
			clock.NewVirtualClock,
			provideClock,

			// Stores
			memory.NewSubscriptionRepository,
			memory.NewPurchaseRepository,
			memory.NewCatalogRepository,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Message router
			pubsubRouter.NewRouter,
		),
	)

	// Notification dispatch module (must be initialised before services)
	opts = append(opts, rtdn.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewSubscriptionService,
			service.NewPurchaseService,
			service.NewOrderService,
			service.NewTimeService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideClock(c *clock.VirtualClock) clock.Clock {
	return c
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	subscriptionService service.SubscriptionService,
	purchaseService service.PurchaseService,
	orderService service.OrderService,
	timeService service.TimeService,
	catalogRepo catalog.Repository,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		Product:      v1.NewProductHandler(purchaseService, logger),
		Order:        v1.NewOrderHandler(orderService, logger),
		Emulator:     v1.NewEmulatorHandler(timeService, catalogRepo, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	dispatchService *rtdn.DispatchService,
	router *pubsubRouter.Router,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, dispatchService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	dispatchService *rtdn.DispatchService,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	dispatchService.RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			if err := dispatchService.Stop(); err != nil {
				logger.Errorw("failed to stop dispatch service", "error", err)
			}
			return router.Close()
		},
	})
}
