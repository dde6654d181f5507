package config

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("expected default env %q, got %q", EnvDev, cfg.AppEnv)
	}
	if cfg.ServiceName != "gameweek-oracle" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache ttl %s", cfg.CacheTTL)
	}
	if cfg.LiveCacheTTL != 30*time.Second {
		t.Fatalf("unexpected live cache ttl %s", cfg.LiveCacheTTL)
	}
	if cfg.FPLBaseURL != "https://fantasy.premierleague.com/api" {
		t.Fatalf("unexpected provider base url %q", cfg.FPLBaseURL)
	}
	if cfg.FPLMaxRetries != 2 {
		t.Fatalf("unexpected retry count %d", cfg.FPLMaxRetries)
	}
	if !cfg.FPLCircuitEnabled || cfg.FPLCircuitFailureCount != 5 {
		t.Fatalf("unexpected circuit defaults: %+v", cfg)
	}
	if cfg.ChainEnabled {
		t.Fatal("chain writes should default to disabled")
	}
	if cfg.SyncScheduleInterval != 15*time.Minute || cfg.SyncMaxWorkers != 2 {
		t.Fatalf("unexpected scheduler defaults: %+v", cfg)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected default log level %v", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Prod")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("LIVE_CACHE_TTL", "10s")
	t.Setenv("FPL_MAX_RETRIES", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SYNC_MAX_WORKERS", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AppEnv != EnvProd {
		t.Fatalf("expected prod env, got %q", cfg.AppEnv)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.CacheTTL != 90*time.Second || cfg.LiveCacheTTL != 10*time.Second {
		t.Fatalf("unexpected ttls: %+v", cfg)
	}
	if cfg.FPLMaxRetries != 4 || cfg.SyncMaxWorkers != 1 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad app env", "APP_ENV", "production", "invalid APP_ENV"},
		{"bad cache ttl", "CACHE_TTL", "soon", "parse CACHE_TTL"},
		{"zero cache ttl", "CACHE_TTL", "0s", "must be > 0"},
		{"bad retries", "FPL_MAX_RETRIES", "many", "parse FPL_MAX_RETRIES"},
		{"negative retries", "FPL_MAX_RETRIES", "-1", "must be >= 0"},
		{"bad circuit flag", "FPL_CIRCUIT_ENABLED", "yep", "parse FPL_CIRCUIT_ENABLED"},
		{"zero failure count", "FPL_CIRCUIT_FAILURE_COUNT", "0", "must be >= 1"},
		{"bad interval", "SYNC_SCHEDULE_INTERVAL", "-5m", "must be > 0"},
		{"zero workers", "SYNC_MAX_WORKERS", "0", "must be >= 1"},
		{"blank cors", "CORS_ALLOWED_ORIGINS", " , ,", "cannot be empty"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_ChainRequiresFullConfig(t *testing.T) {
	t.Setenv("CHAIN_ENABLED", "true")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CHAIN_RPC_URL") {
		t.Fatalf("expected CHAIN_RPC_URL requirement, got %v", err)
	}

	t.Setenv("CHAIN_RPC_URL", "http://127.0.0.1:8545")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CHAIN_POINTS_STORE_ADDRESS") {
		t.Fatalf("expected CHAIN_POINTS_STORE_ADDRESS requirement, got %v", err)
	}

	t.Setenv("CHAIN_POINTS_STORE_ADDRESS", "0x000000000000000000000000000000000000dEaD")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CHAIN_PRIVATE_KEY") {
		t.Fatalf("expected CHAIN_PRIVATE_KEY requirement, got %v", err)
	}

	t.Setenv("CHAIN_PRIVATE_KEY", "0abc")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CHAIN_ID") {
		t.Fatalf("expected CHAIN_ID requirement, got %v", err)
	}

	t.Setenv("CHAIN_ID", "31337")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.ChainEnabled || cfg.ChainID != 31337 {
		t.Fatalf("unexpected chain config: %+v", cfg)
	}
}

func TestLoad_ObservabilityRequirements(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "UPTRACE_DSN") {
		t.Fatalf("expected UPTRACE_DSN requirement, got %v", err)
	}
	t.Setenv("UPTRACE_DSN", "https://token@api.uptrace.dev/1")

	t.Setenv("PYROSCOPE_ENABLED", "true")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "PYROSCOPE_SERVER_ADDRESS") {
		t.Fatalf("expected PYROSCOPE_SERVER_ADDRESS requirement, got %v", err)
	}
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://127.0.0.1:4040")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.UptraceEnabled || !cfg.PyroscopeEnabled {
		t.Fatalf("unexpected observability config: %+v", cfg)
	}
	if cfg.PyroscopeAppName != cfg.ServiceName {
		t.Fatalf("expected app name to default to service name, got %q", cfg.PyroscopeAppName)
	}
}
