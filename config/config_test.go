package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "factory",
		Password: "secret",
		Name:     "factory",
		SSLMode:  "disable",
	}
	dsn := db.GetDSN()

	expected := "host=localhost port=5432 user=factory password=secret dbname=factory sslmode=disable"
	if dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestGetDSNCustomValues(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "admin",
		Password: "p@ss",
		Name:     "mydb",
		SSLMode:  "require",
	}
	dsn := db.GetDSN()

	if !strings.Contains(dsn, "host=db.example.com") {
		t.Errorf("DSN missing host, got: %s", dsn)
	}
	if !strings.Contains(dsn, "port=5433") {
		t.Errorf("DSN missing port, got: %s", dsn)
	}
	if !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("DSN missing sslmode, got: %s", dsn)
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want %q", got, "default")
	}

	os.Setenv("TEST_CONFIG_VAR", "custom")
	defer os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want %q", got, "custom")
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8080 {
			t.Errorf("getIntEnv() = %d, want %d", got, 8080)
		}
	})

	t.Run("parses valid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "9090")
		defer os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 9090 {
			t.Errorf("getIntEnv() = %d, want %d", got, 9090)
		}
	})

	t.Run("error on invalid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "not_int")
		defer os.Unsetenv("TEST_INT_VAR")
		_, err := getIntEnv("TEST_INT_VAR", 8080)
		if err == nil {
			t.Error("expected error for invalid int value")
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	// Clear env vars to get defaults
	for _, key := range []string{"SERVER_PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "CORS_ALLOWED_ORIGINS", "SNAPSHOT_SERIALIZE", "DASHBOARD_BREAKER_TIMEOUT_SEC", "LOG_LEVEL", "LOG_PRETTY", "REDIS_URL", "REDIS_CONNECT_ATTEMPTS", "SERVER_SHUTDOWN_TIMEOUT_SEC", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME_SEC"} {
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Prediction.SerializeSnapshots {
		t.Error("Prediction.SerializeSnapshots should default to false")
	}
	if cfg.Prediction.BreakerTimeout != 30*time.Second {
		t.Errorf("Prediction.BreakerTimeout = %v, want 30s", cfg.Prediction.BreakerTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.MaxOpenConns != 10 || cfg.Database.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("Database pool = %d/%v, want 10/5m", cfg.Database.MaxOpenConns, cfg.Database.ConnMaxLifetime)
	}
	if cfg.Redis.ConnectAttempts != 10 {
		t.Errorf("Redis.ConnectAttempts = %d, want 10", cfg.Redis.ConnectAttempts)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Redis.Port)
	}
	if cfg.CORS.AllowedOrigins != "*" {
		t.Errorf("CORS.AllowedOrigins = %q, want %q", cfg.CORS.AllowedOrigins, "*")
	}
}

func TestLoadConfigCustom(t *testing.T) {
	os.Setenv("SERVER_PORT", "3000")
	os.Setenv("DB_HOST", "db.prod")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("SNAPSHOT_SERIALIZE", "true")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("SNAPSHOT_SERIALIZE")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.prod" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.prod")
	}
	if cfg.Database.Port != 5433 {
		t.Errorf("Database.Port = %d, want 5433", cfg.Database.Port)
	}
	if !cfg.Prediction.SerializeSnapshots {
		t.Error("Prediction.SerializeSnapshots = false, want true")
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	os.Setenv("SERVER_PORT", "invalid")
	defer os.Unsetenv("SERVER_PORT")

	_, err := LoadConfig()
	if err == nil {
		t.Error("expected error for invalid SERVER_PORT")
	}
}

func TestLoadConfigInvalidBool(t *testing.T) {
	os.Setenv("SNAPSHOT_SERIALIZE", "sometimes")
	defer os.Unsetenv("SNAPSHOT_SERIALIZE")

	_, err := LoadConfig()
	if err == nil {
		t.Error("expected error for invalid SNAPSHOT_SERIALIZE")
	}
}

func TestGetBoolEnv(t *testing.T) {
	os.Unsetenv("TEST_BOOL_VAR")
	got, err := getBoolEnv("TEST_BOOL_VAR", true)
	if err != nil || !got {
		t.Errorf("getBoolEnv() = %v, %v; want true, nil", got, err)
	}

	os.Setenv("TEST_BOOL_VAR", "0")
	defer os.Unsetenv("TEST_BOOL_VAR")
	got, err = getBoolEnv("TEST_BOOL_VAR", true)
	if err != nil || got {
		t.Errorf("getBoolEnv() = %v, %v; want false, nil", got, err)
	}
}

func TestLoadConfigReportsEveryInvalidVariable(t *testing.T) {
	os.Setenv("DB_PORT", "x")
	os.Setenv("LOG_PRETTY", "maybe")
	defer func() {
		os.Unsetenv("DB_PORT")
		os.Unsetenv("LOG_PRETTY")
	}()

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"DB_PORT", "LOG_PRETTY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8080},
			Database:   DatabaseConfig{Port: 5432, MaxOpenConns: 1},
			Redis:      RedisConfig{Port: 6379, ConnectAttempts: 1},
			Prediction: PredictionConfig{BreakerTimeout: time.Second},
			Log:        LogConfig{Level: "warn"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"zero breaker timeout", func(c *Config) { c.Prediction.BreakerTimeout = 0 }, "DASHBOARD_BREAKER_TIMEOUT_SEC"},
		{"no redis attempts", func(c *Config) { c.Redis.ConnectAttempts = 0 }, "REDIS_CONNECT_ATTEMPTS"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisConfig{Host: "cache", Port: 6380, DB: 2}.Options()
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Errorf("Options() = %s db %d, want cache:6380 db 2", opts.Addr, opts.DB)
	}

	opts, err = RedisConfig{URL: "redis://:pw@queue:6379/3", Host: "ignored"}.Options()
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	if opts.Addr != "queue:6379" || opts.DB != 3 || opts.Password != "pw" {
		t.Errorf("Options() = %+v", opts)
	}

	if _, err := (RedisConfig{URL: "http://nope"}).Options(); err == nil {
		t.Error("expected error for non-redis URL")
	}
}
