package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Allocation   AllocationConfig
	Availability AvailabilityConfig
	Payments     PaymentsConfig
	Chapa        ChapaConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AllocationConfig tunes the seat allocation engine.
type AllocationConfig struct {
	// MaxAttempts bounds how many times a capacity race restarts the
	// engine before it gives up with a transient error.
	MaxAttempts int
	// DefaultClassSize seeds each shift counter when an institution is
	// registered without an explicit class size.
	DefaultClassSize int
}

// AvailabilityConfig governs cached slot availability listings.
type AvailabilityConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// PaymentsConfig controls the pending payment poller.
type PaymentsConfig struct {
	Enabled           bool
	PollInterval      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ChapaConfig points at the payment gateway verification API.
type ChapaConfig struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Allocation = AllocationConfig{
		MaxAttempts:      v.GetInt("ALLOCATION_MAX_ATTEMPTS"),
		DefaultClassSize: v.GetInt("ALLOCATION_DEFAULT_CLASS_SIZE"),
	}

	cfg.Availability = AvailabilityConfig{
		Enabled:  v.GetBool("ENABLE_AVAILABILITY_CACHE"),
		CacheTTL: parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), time.Minute),
	}

	cfg.Payments = PaymentsConfig{
		Enabled:           v.GetBool("ENABLE_PAYMENT_POLLER"),
		PollInterval:      parseDuration(v.GetString("PAYMENT_POLL_INTERVAL"), 5*time.Minute),
		WorkerConcurrency: v.GetInt("PAYMENT_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("PAYMENT_WORKER_RETRIES"),
	}

	cfg.Chapa = ChapaConfig{
		BaseURL: v.GetString("CHAPA_BASE_URL"),
		Secret:  v.GetString("CHAPA_SECRET_KEY"),
		Timeout: parseDuration(v.GetString("CHAPA_TIMEOUT"), 10*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "takethestage")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ALLOCATION_MAX_ATTEMPTS", 3)
	v.SetDefault("ALLOCATION_DEFAULT_CLASS_SIZE", 30)

	v.SetDefault("ENABLE_AVAILABILITY_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "1m")

	v.SetDefault("ENABLE_PAYMENT_POLLER", false)
	v.SetDefault("PAYMENT_POLL_INTERVAL", "5m")
	v.SetDefault("PAYMENT_WORKER_CONCURRENCY", 2)
	v.SetDefault("PAYMENT_WORKER_RETRIES", 3)

	v.SetDefault("CHAPA_BASE_URL", "https://api.chapa.co/v1")
	v.SetDefault("CHAPA_SECRET_KEY", "")
	v.SetDefault("CHAPA_TIMEOUT", "10s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
