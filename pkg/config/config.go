package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingJWTSecret is returned when JWT_SECRET is unset.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	Postgres Postgres
	Redis    Redis
	JWT      JWT
	Pricing  Pricing
	Checkout Checkout

	CatalogSeedFile string
	RepairInterval  time.Duration
}

type Postgres struct {
	Enabled bool
	Host    string
	Port    int
	User    string
	Pass    string
	DB      string
	SSLMode string
}

type Redis struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	GuestCartTTL time.Duration
}

type JWT struct {
	Secret string
}

type Pricing struct {
	Currency    string
	RoundPlaces int32
}

type Checkout struct {
	Reprice       bool
	MaxConcurrent int
}

var defaults = map[string]any{
	"APP_ENV":                 "dev",
	"LOG_LEVEL":               "info",
	"HTTP_PORT":               8080,
	"POSTGRES_ENABLED":        true,
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           5432,
	"POSTGRES_USER":           "shopping",
	"POSTGRES_PASSWORD":       "shoppingpassword",
	"POSTGRES_DB":             "shopping_db",
	"POSTGRES_SSLMODE":        "disable",
	"REDIS_ENABLED":           true,
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"GUEST_CART_TTL":          "720h",
	"JWT_SECRET":              "",
	"PRICING_CURRENCY":        "AED",
	"PRICING_ROUND_PLACES":    0,
	"CHECKOUT_REPRICE":        true,
	"CHECKOUT_MAX_CONCURRENT": 10,
	"CATALOG_SEED_FILE":       "",
	"REPAIR_INTERVAL":         "15m",
}

// Load reads .env (if any), then config.yaml (if any), then the environment.
// Environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := Config{
		AppEnv:   v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		HTTPPort: v.GetInt("HTTP_PORT"),
		Postgres: Postgres{
			Enabled: v.GetBool("POSTGRES_ENABLED"),
			Host:    v.GetString("POSTGRES_HOST"),
			Port:    v.GetInt("POSTGRES_PORT"),
			User:    v.GetString("POSTGRES_USER"),
			Pass:    v.GetString("POSTGRES_PASSWORD"),
			DB:      v.GetString("POSTGRES_DB"),
			SSLMode: v.GetString("POSTGRES_SSLMODE"),
		},
		Redis: Redis{
			Enabled:      v.GetBool("REDIS_ENABLED"),
			Addr:         v.GetString("REDIS_ADDR"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			GuestCartTTL: v.GetDuration("GUEST_CART_TTL"),
		},
		JWT: JWT{Secret: v.GetString("JWT_SECRET")},
		Pricing: Pricing{
			Currency:    v.GetString("PRICING_CURRENCY"),
			RoundPlaces: v.GetInt32("PRICING_ROUND_PLACES"),
		},
		Checkout: Checkout{
			Reprice:       v.GetBool("CHECKOUT_REPRICE"),
			MaxConcurrent: v.GetInt("CHECKOUT_MAX_CONCURRENT"),
		},
		CatalogSeedFile: v.GetString("CATALOG_SEED_FILE"),
		RepairInterval:  v.GetDuration("REPAIR_INTERVAL"),
	}

	if cfg.JWT.Secret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	if cfg.Pricing.RoundPlaces < 0 {
		return Config{}, fmt.Errorf("PRICING_ROUND_PLACES must be >= 0, got %d", cfg.Pricing.RoundPlaces)
	}
	if cfg.Checkout.MaxConcurrent <= 0 {
		cfg.Checkout.MaxConcurrent = 10
	}
	return cfg, nil
}
