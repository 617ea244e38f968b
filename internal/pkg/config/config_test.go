package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

var validSecret = strings.Repeat("s", domain.MinSecretLength)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": validSecret,
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.JWT.TTL != 120*time.Minute {
		t.Fatalf("expected 120m token TTL, got %v", cfg.JWT.TTL)
	}
	if cfg.JWT.Issuer != "motoconnect" || cfg.JWT.Audience != "motoconnect-api" {
		t.Fatalf("unexpected issuer/audience: %q %q", cfg.JWT.Issuer, cfg.JWT.Audience)
	}
	if cfg.Password.Iterations != domain.DefaultIterations {
		t.Fatalf("expected %d iterations, got %d", domain.DefaultIterations, cfg.Password.Iterations)
	}
	if cfg.Login.MaxFailures != 5 || cfg.Login.Lockout != 15*time.Minute {
		t.Fatalf("unexpected login throttle defaults: %+v", cfg.Login)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":          validSecret,
		"JWT_ISSUER":          "fleet",
		"JWT_TTL":             "30m",
		"PASSWORD_ITERATIONS": "210000",
		"HASH_WORKERS":        "4",
		"ENV":                 "production",
		"MONGO_URI":           "mongodb://db:27017",
		"REDIS_ADDR":          "cache:6379",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.JWT.Issuer != "fleet" || cfg.JWT.TTL != 30*time.Minute {
		t.Fatalf("unexpected jwt config: %+v", cfg.JWT)
	}
	if cfg.Password.Iterations != 210000 || cfg.Password.Workers != 4 {
		t.Fatalf("unexpected password config: %+v", cfg.Password)
	}
	if cfg.Mongo.URI != "mongodb://db:27017" || cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("unexpected store config: %+v %+v", cfg.Mongo, cfg.Redis)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production env")
	}
}

func TestLoad_SecretIsMandatory(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if !errors.Is(err, domain.ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}

	_, err = load(context.Background(), envconfig.MapLookuper(map[string]string{"JWT_SECRET": "too-short"}))
	if !errors.Is(err, domain.ErrWeakSecret) {
		t.Fatalf("expected ErrWeakSecret, got %v", err)
	}
}

func TestLoad_RejectsNonPositiveIterations(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":          validSecret,
		"PASSWORD_ITERATIONS": "0",
	}))
	if err == nil {
		t.Fatalf("expected error for zero iterations")
	}
}
