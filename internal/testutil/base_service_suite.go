package testutil

import (
	"context"

	"github.com/billingsim/billingsim/internal/cache"
	"github.com/billingsim/billingsim/internal/clock"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/domain/catalog"
	"github.com/billingsim/billingsim/internal/domain/purchase"
	"github.com/billingsim/billingsim/internal/domain/subscription"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/repository/memory"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/stretchr/testify/suite"
)

// TestEpochMillis is the fixed virtual-time origin every suite starts at
const TestEpochMillis int64 = 1700000000000

// Stores holds the repository interfaces for testing
type Stores struct {
	SubscriptionRepo subscription.Repository
	PurchaseRepo     purchase.Repository
	CatalogRepo      catalog.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: fresh in-memory stores, a fixed-epoch virtual clock and a
// capturing notification publisher per test.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *CapturingPublisher
	clock     *clock.VirtualClock
	logger    *logger.Logger
	config    *config.Configuration
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := testConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewVirtualClock(s.config)
	s.publisher = NewCapturingPublisher()
	s.stores = Stores{
		SubscriptionRepo: memory.NewSubscriptionRepository(),
		PurchaseRepo:     memory.NewPurchaseRepository(),
		CatalogRepo:      memory.NewCatalogRepository(s.config, cache.NewInMemoryCache()),
	}
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	_ = s.stores.SubscriptionRepo.Clear(s.ctx)
	_ = s.stores.PurchaseRepo.Clear(s.ctx)
	s.publisher.Reset()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetPublisher() *CapturingPublisher {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetClock() *clock.VirtualClock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Deployment: config.DeploymentConfig{Mode: types.ModeLocal},
		Logging:    config.LoggingConfig{Level: types.LogLevelError},
		Emulator: config.EmulatorConfig{
			EpochMillis:        TestEpochMillis,
			TokenPrefix:        "emulator",
			DefaultPackageName: "com.example.app",
		},
		Catalog: config.CatalogConfig{
			Subscriptions: []config.PlanConfig{
				{
					ID:            "premium_monthly",
					Title:         "Premium Monthly",
					PriceMicros:   9990000,
					Currency:      "USD",
					BillingPeriod: "P1M",
					TrialPeriod:   "P7D",
					GracePeriod:   "P7D",
				},
				{
					ID:            "premium_yearly",
					Title:         "Premium Yearly",
					PriceMicros:   99990000,
					Currency:      "USD",
					BillingPeriod: "P1Y",
					GracePeriod:   "P14D",
				},
				{
					ID:            "basic_weekly",
					Title:         "Basic Weekly",
					PriceMicros:   1990000,
					Currency:      "USD",
					BillingPeriod: "P1W",
				},
			},
			Products: []config.PlanConfig{
				{
					ID:          "coins_100",
					Title:       "100 Coins",
					PriceMicros: 990000,
					Currency:    "USD",
				},
				{
					ID:          "remove_ads",
					Title:       "Remove Ads",
					PriceMicros: 2990000,
					Currency:    "USD",
				},
			},
		},
		Notification: config.Notification{
			Enabled: true,
			Topic:   "google-play-rtdn",
			PubSub:  types.MemoryPubSub,
		},
	}
}
