package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/config"
	"storefront/internal/delivery"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/pkg/db"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig(logger)

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", cfg.LogLevel, logLevel.String())
	}
	logger.SetLevel(logLevel)
	logger.Info("Starting Storefront Service...")

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connection established.")

	engine := pricing.NewEngine(pricing.Config{
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		FlatShippingPrice:     decimal.NewFromFloat(cfg.FlatShippingPrice),
	})

	// --- Dependency Injection ---
	productRepo := repository.NewPostgresProductRepository(database, logger)
	cartRepo := repository.NewPostgresCartRepository(database, logger)
	orderRepo := repository.NewPostgresOrderRepository(database, logger)
	logger.Info("Repositories initialized.")

	ledger := usecase.NewInventoryLedger(productRepo, logger)
	carts := usecase.NewCartStore(cartRepo, productRepo, engine, logger)
	orders := usecase.NewOrderCoordinator(orderRepo, productRepo, ledger, carts, engine, cfg.OrderRepriceFromCatalog, logger)
	products := usecase.NewProductUseCase(productRepo, logger)
	logger.Info("Use cases initialized.")

	cartHandler := delivery.NewCartHandler(carts, logger)
	orderHandler := delivery.NewOrderHandler(orders, logger)
	productHandler := delivery.NewProductHandler(products, ledger, logger)
	logger.Info("Handlers initialized.")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(delivery.RequestLogger(logger))
	router.RedirectTrailingSlash = false

	authed := router.Group("", delivery.Identity(logger))
	cartHandler.RegisterRoutes(authed)
	orderHandler.RegisterRoutes(authed)
	productHandler.RegisterRoutes(router, authed)
	logger.Info("Routes registered.")

	logger.Infof("Starting server on port %s", cfg.HTTPPort)
	if err := router.Run(cfg.HTTPPort); err != nil {
		logger.Errorf("Failed to start server on port %s: %v", cfg.HTTPPort, err)
		os.Exit(1)
	}
}
