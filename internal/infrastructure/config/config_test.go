package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Storage.Driver != "file" || cfg.Broadcast.Driver != "local" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Session.ExpiryCheck != "@every 1m" {
		t.Fatalf("unexpected expiry schedule %q", cfg.Session.ExpiryCheck)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORAGE_DRIVER":            "redis",
		"BROADCAST_DRIVER":          "redis",
		"REDIS_DB":                  "3",
		"API_TIMEOUT":               "2s",
		"SESSION_VERIFY_ON_RESTORE": "true",
		"ENV":                       "production",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != "redis" || cfg.Redis.DB != 3 || cfg.API.Timeout != 2*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Session.VerifyOnRestore || cfg.IsDevelopment() {
		t.Fatalf("unexpected session/env config: %+v", cfg)
	}
}

func TestLoad_RejectsUnknownDrivers(t *testing.T) {
	tests := map[string]map[string]string{
		"storage":   {"STORAGE_DRIVER": "sqlite"},
		"broadcast": {"BROADCAST_DRIVER": "kafka"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
