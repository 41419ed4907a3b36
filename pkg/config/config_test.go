package config

import (
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.DB.DBName != "storage_gate" {
		t.Errorf("DB.DBName = %q, want storage_gate", cfg.DB.DBName)
	}
	if cfg.Stripe.WebhookTolerance != 5*time.Minute {
		t.Errorf("Stripe.WebhookTolerance = %v, want 5m", cfg.Stripe.WebhookTolerance)
	}
	if cfg.Gate.APIURL != "" {
		t.Errorf("Gate.APIURL = %q, want empty (simulated mode)", cfg.Gate.APIURL)
	}
	if cfg.JWT.ExpirationHours != 24 {
		t.Errorf("JWT.ExpirationHours = %d, want 24", cfg.JWT.ExpirationHours)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_live")
	t.Setenv("STRIPE_WEBHOOK_TOLERANCE", "2m")
	t.Setenv("GATE_API_URL", "https://gate.example.com")
	t.Setenv("GATE_API_TOKEN", "gate-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DB.Host != "db.internal" {
		t.Errorf("DB.Host = %q, want db.internal", cfg.DB.Host)
	}
	if cfg.DB.LogLevel != logger.Silent {
		t.Errorf("DB.LogLevel = %v, want silent", cfg.DB.LogLevel)
	}
	if cfg.Stripe.WebhookSecret != "whsec_live" {
		t.Errorf("Stripe.WebhookSecret = %q, want whsec_live", cfg.Stripe.WebhookSecret)
	}
	if cfg.Stripe.WebhookTolerance != 2*time.Minute {
		t.Errorf("Stripe.WebhookTolerance = %v, want 2m", cfg.Stripe.WebhookTolerance)
	}
	if cfg.Gate.APIToken != "gate-token" {
		t.Errorf("Gate.APIToken = %q, want gate-token", cfg.Gate.APIToken)
	}
}

func TestGetDSN(t *testing.T) {
	c := DBConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		DBName:   "storage_gate",
		SSLMode:  "disable",
	}
	want := "host=localhost port=5432 user=postgres password=secret dbname=storage_gate sslmode=disable"
	if got := c.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DB.MaxIdleConns != 10 {
		t.Errorf("DB.MaxIdleConns = %d, want default 10", cfg.DB.MaxIdleConns)
	}
}
