package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.AppEnv != "dev" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Pricing.Currency != "AED" || cfg.Pricing.RoundPlaces != 0 {
		t.Fatalf("unexpected pricing defaults: %+v", cfg.Pricing)
	}
	if cfg.Redis.GuestCartTTL != 720*time.Hour {
		t.Fatalf("guest cart ttl = %v", cfg.Redis.GuestCartTTL)
	}
	if !cfg.Checkout.Reprice || cfg.Checkout.MaxConcurrent != 10 {
		t.Fatalf("unexpected checkout defaults: %+v", cfg.Checkout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PRICING_ROUND_PLACES", "2")
	t.Setenv("CHECKOUT_REPRICE", "false")
	t.Setenv("REPAIR_INTERVAL", "1m")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 9090 {
		t.Fatalf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.Pricing.RoundPlaces != 2 {
		t.Fatalf("RoundPlaces = %d", cfg.Pricing.RoundPlaces)
	}
	if cfg.Checkout.Reprice {
		t.Fatal("expected reprice disabled")
	}
	if cfg.RepairInterval != time.Minute {
		t.Fatalf("RepairInterval = %v", cfg.RepairInterval)
	}
}

func TestLoadRejectsNegativeRounding(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PRICING_ROUND_PLACES", "-1")
	if _, err := load(viper.New()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := load(viper.New()); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("err = %v, want ErrMissingJWTSecret", err)
	}
}
