package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	HTTPPort    string `envconfig:"HTTP_PORT"    default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL"    default:"info"`

	// Pricing policy. Defaults match the recorded storefront behavior:
	// 10% tax, free shipping strictly over $100, $10 flat otherwise.
	TaxRate               float64 `envconfig:"TAX_RATE"                default:"0.10"`
	FreeShippingThreshold float64 `envconfig:"FREE_SHIPPING_THRESHOLD" default:"100"`
	FlatShippingPrice     float64 `envconfig:"FLAT_SHIPPING_PRICE"     default:"10"`

	// When true, order creation replaces caller-supplied line prices with
	// the catalog's current effective prices.
	OrderRepriceFromCatalog bool `envconfig:"ORDER_REPRICE_FROM_CATALOG" default:"false"`
}

var (
	config Config
	once   sync.Once
)

func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		err = envconfig.Process("", &config)
		if err != nil {
			logger.Fatalf("Failed to process configuration from environment variables: %v", err)
		}

		logger.Infof("Configuration loaded: HTTP Port=%s, LogLevel=%s, Reprice=%t", config.HTTPPort, config.LogLevel, config.OrderRepriceFromCatalog)
		if config.DatabaseURL == "" {
			logger.Fatal("Configuration error: DATABASE_URL is not set")
		}
	})
	return &config
}
