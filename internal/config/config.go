package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTP_PORT string `env:"HTTP_PORT"`
	APP_ENV   string `env:"APP_ENV"`
	LOG_LEVEL string `env:"LOG_LEVEL"`

	BACKEND_URL     string        `env:"BACKEND_URL"`
	BACKEND_TIMEOUT time.Duration `env:"BACKEND_TIMEOUT"`

	CART_STORAGE   string `env:"CART_STORAGE"`
	CART_FILE_DIR  string `env:"CART_FILE_DIR"`
	REDIS_ADDR     string `env:"REDIS_ADDR"`
	REDIS_PASSWORD string `env:"REDIS_PASSWORD"`
	REDIS_DB       int    `env:"REDIS_DB"`
	DB_STRING      string `env:"DB_STRING"`

	KAFKA_BROKERS  string `env:"KAFKA_BROKERS"`
	KAFKA_TOPIC    string `env:"KAFKA_TOPIC"`
	KAFKA_GROUP_ID string `env:"KAFKA_GROUP_ID"`
	AMQP_URL       string `env:"AMQP_URL"`
	AMQP_QUEUE     string `env:"AMQP_QUEUE"`

	SQUARE_APP_ID      string `env:"SQUARE_APP_ID"`
	SQUARE_LOCATION_ID string `env:"SQUARE_LOCATION_ID"`
	SQUARE_ENV         string `env:"SQUARE_ENV"`

	CHECKOUT_CURRENCY       string `env:"CHECKOUT_CURRENCY"`
	CHECKOUT_SHIPPING_CENTS int64  `env:"CHECKOUT_SHIPPING_CENTS"`
	CHECKOUT_TAX_BPS        int64  `env:"CHECKOUT_TAX_BPS"`
}

// LoadConfig reads the environment, after merging an optional .env file.
// Variables already present in the environment win over the file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP_PORT:          getenv("HTTP_PORT", "8080"),
		APP_ENV:            getenv("APP_ENV", "development"),
		LOG_LEVEL:          getenv("LOG_LEVEL", "info"),
		BACKEND_URL:        getenv("BACKEND_URL", "http://localhost:4001/api"),
		CART_STORAGE:       getenv("CART_STORAGE", StorageMemory),
		CART_FILE_DIR:      getenv("CART_FILE_DIR", "./data/carts"),
		REDIS_ADDR:         getenv("REDIS_ADDR", "localhost:6379"),
		REDIS_PASSWORD:     os.Getenv("REDIS_PASSWORD"),
		DB_STRING:          os.Getenv("DB_STRING"),
		KAFKA_BROKERS:      os.Getenv("KAFKA_BROKERS"),
		KAFKA_TOPIC:        getenv("KAFKA_TOPIC", "storefront.orders"),
		KAFKA_GROUP_ID:     getenv("KAFKA_GROUP_ID", defaultGroupID()),
		AMQP_URL:           os.Getenv("AMQP_URL"),
		AMQP_QUEUE:         getenv("AMQP_QUEUE", "order-confirmation-emails"),
		SQUARE_APP_ID:      getenv("SQUARE_APP_ID", "sandbox-sq0idb-storefront"),
		SQUARE_LOCATION_ID: getenv("SQUARE_LOCATION_ID", "sandbox-location"),
		SQUARE_ENV:         getenv("SQUARE_ENV", "sandbox"),
		CHECKOUT_CURRENCY:  getenv("CHECKOUT_CURRENCY", "USD"),
	}

	var err error
	if cfg.BACKEND_TIMEOUT, err = time.ParseDuration(getenv("BACKEND_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("BACKEND_TIMEOUT: %w", err)
	}
	if cfg.REDIS_DB, err = strconv.Atoi(getenv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.CHECKOUT_SHIPPING_CENTS, err = strconv.ParseInt(getenv("CHECKOUT_SHIPPING_CENTS", "500"), 10, 64); err != nil {
		return nil, fmt.Errorf("CHECKOUT_SHIPPING_CENTS: %w", err)
	}
	if cfg.CHECKOUT_TAX_BPS, err = strconv.ParseInt(getenv("CHECKOUT_TAX_BPS", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("CHECKOUT_TAX_BPS: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CART_STORAGE {
	case StorageMemory, StorageFile, StorageRedis:
	case StoragePostgres:
		if c.DB_STRING == "" {
			return errors.New("DB_STRING is required for postgres cart storage")
		}
	default:
		return fmt.Errorf("unknown CART_STORAGE %q", c.CART_STORAGE)
	}
	if c.SQUARE_ENV != "sandbox" && c.SQUARE_ENV != "production" {
		return fmt.Errorf("SQUARE_ENV must be sandbox or production, got %q", c.SQUARE_ENV)
	}
	if c.CHECKOUT_SHIPPING_CENTS < 0 || c.CHECKOUT_TAX_BPS < 0 {
		return errors.New("checkout shipping and tax must be non-negative")
	}
	return nil
}

// defaultGroupID gives each instance its own consumer group, so every
// instance sees every order event.
func defaultGroupID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "storefront-bff-" + host
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
