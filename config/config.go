package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Prediction PredictionConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig addresses Redis either by URL (REDIS_URL, as the workers do)
// or by host and port.
type RedisConfig struct {
	URL             string
	Host            string
	Port            int
	Password        string
	DB              int
	ConnectAttempts int
}

// Options builds client options, preferring URL when it is set.
func (r RedisConfig) Options() (*redis.Options, error) {
	if r.URL != "" {
		opts, err := redis.ParseURL(r.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", r.Host, r.Port),
		Password: r.Password,
		DB:       r.DB,
	}, nil
}

type CORSConfig struct {
	AllowedOrigins string
}

type PredictionConfig struct {
	// SerializeSnapshots guards read-latest/mark-stale/insert with a per-order lock.
	SerializeSnapshots bool
	// BreakerTimeout is how long the dashboard breaker stays open.
	BreakerTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// LoadConfig reads the API configuration from the environment. Every
// malformed variable is reported, not just the first.
func LoadConfig() (*Config, error) {
	env := &envReader{}

	cfg := &Config{
		Server: ServerConfig{
			Port:            env.integer("SERVER_PORT", 8080),
			ShutdownTimeout: env.seconds("SERVER_SHUTDOWN_TIMEOUT_SEC", 10),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            env.integer("DB_PORT", 5432),
			User:            getEnv("DB_USER", "factory"),
			Password:        getEnv("DB_PASSWORD", "factory_dev_password"),
			Name:            getEnv("DB_NAME", "factory"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    env.integer("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.seconds("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Redis: RedisConfig{
			URL:             getEnv("REDIS_URL", ""),
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            env.integer("REDIS_PORT", 6379),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              env.integer("REDIS_DB", 0),
			ConnectAttempts: env.integer("REDIS_CONNECT_ATTEMPTS", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Prediction: PredictionConfig{
			SerializeSnapshots: env.boolean("SNAPSHOT_SERIALIZE", false),
			BreakerTimeout:     env.seconds("DASHBOARD_BREAKER_TIMEOUT_SEC", 30),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: env.boolean("LOG_PRETTY", false),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that parsing alone cannot catch.
func (c *Config) Validate() error {
	var errs []error
	for name, port := range map[string]int{"SERVER_PORT": c.Server.Port, "DB_PORT": c.Database.Port, "REDIS_PORT": c.Redis.Port} {
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s %d out of range", name, port))
		}
	}
	if c.Prediction.BreakerTimeout <= 0 {
		errs = append(errs, errors.New("DASHBOARD_BREAKER_TIMEOUT_SEC must be positive"))
	}
	if c.Redis.ConnectAttempts < 1 {
		errs = append(errs, errors.New("REDIS_CONNECT_ATTEMPTS must be at least 1"))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be at least 1"))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// envReader collects parse errors while reading typed variables.
type envReader struct {
	errs []error
}

func (r *envReader) integer(key string, fallback int) int {
	v, err := getIntEnv(key, fallback)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (r *envReader) boolean(key string, fallback bool) bool {
	v, err := getBoolEnv(key, fallback)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (r *envReader) seconds(key string, fallback int) time.Duration {
	return time.Duration(r.integer(key, fallback)) * time.Second
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}
