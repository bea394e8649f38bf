package main

import (
	"context"

	"github.com/topsucces-code/mientior-backend/external/midtrans"
	"github.com/topsucces-code/mientior-backend/internal/cache"
	"github.com/topsucces-code/mientior-backend/internal/config"
	"github.com/topsucces-code/mientior-backend/internal/db"
	"github.com/topsucces-code/mientior-backend/internal/repository"
	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ======================
	// INFRA
	// ======================
	ctx := context.Background()

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	pool, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var estimateCache cache.Cache
	if cfg.RedisAddr != "" {
		estimateCache = cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		logger.Info("delivery estimate cache backed by redis", zap.String("addr", cfg.RedisAddr))
	} else {
		estimateCache = cache.NewMemoryCache()
		logger.Info("delivery estimate cache is in-memory")
	}

	// ======================
	// EXTERNALS
	// ======================
	snapClient := midtrans.NewClient(cfg.MidtransServerKey, cfg.MidtransProduction)

	// ======================
	// REPOSITORIES
	// ======================
	catalogRepo := repository.NewCatalogRepository(pool)
	promotionRepo := repository.NewPromotionRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	// ======================
	// SERVICES
	// ======================
	shippingRates := services.NewShippingRates(cfg.FreeShippingThresholdCents)
	promotionSvc := services.NewPromotionService(promotionRepo)
	checkoutSvc := services.NewCheckoutService(catalogRepo, promotionSvc, shippingRates, cfg.TaxRateBps)
	orderSvc := services.NewOrderService(orderRepo, checkoutSvc, cfg.GuestCheckoutEnabled, cfg.OrderNumberPrefix, logger)
	deliverySvc := services.NewDeliveryService(catalogRepo, estimateCache, shippingRates, cfg.DeliveryCacheTTL, cfg.RestockHorizonDays, logger)
	paymentSvc := services.NewPaymentService(paymentRepo, orderRepo, snapClient, cfg.MidtransServerKey, logger)

	// ======================
	// ECHO
	// ======================
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Validator = &requestValidator{validate: validator.New()}

	api := e.Group("/api/v1")

	// ======================
	// ROUTES (ONLY REGISTRATION)
	// ======================
	registerCheckoutRoutes(api, orderSvc, checkoutSvc)
	registerOrderRoutes(api, orderSvc)
	registerDeliveryRoutes(api, deliverySvc, shippingRates)
	registerPaymentRoutes(api, paymentSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// ======================
	// SERVER
	// ======================
	logger.Info("starting server", zap.String("port", cfg.Port))
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

// requestValidator plugs go-playground/validator into echo's c.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
