package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Observ    ObservabilityConfig
	Dashboard DashboardConfig
	Session   SessionConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type BackendConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// DatabaseConfig points at the sale journal. An empty URL disables it.
type DatabaseConfig struct {
	URL string
}

// RedisConfig locates the snapshot cache. An empty Addr disables it.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// KafkaConfig locates the events topic. No brokers disables publishing and
// the cache worker.
type KafkaConfig struct {
	Brokers       []string
	TopicEvents   string
	ConsumerGroup string
	DedupTTL      time.Duration
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	SampleRatio    float64
}

type DashboardConfig struct {
	RefreshInterval  time.Duration
	SnapshotCacheTTL time.Duration
	CartIdleTimeout  time.Duration
	CartSweepEvery   time.Duration
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	durations := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	ints := func(key, def string) int {
		n, err := strconv.Atoi(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}
	floats := func(key, def string) float64 {
		f, err := strconv.ParseFloat(getEnv(key, def), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return f
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             getEnv("ENV", "development"),
			LogLevel:        getEnv("LOG_LEVEL", ""),
			ShutdownTimeout: durations("SHUTDOWN_TIMEOUT", "10s"),
			CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_BASE_URL", "http://localhost:8000/api"),
			Timeout:        durations("BACKEND_TIMEOUT", "10s"),
			RateLimitRPS:   floats("BACKEND_RATE_LIMIT_RPS", "20"),
			RateLimitBurst: ints("BACKEND_RATE_LIMIT_BURST", "10"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        ints("REDIS_DB", "0"),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "fashionstock"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			TopicEvents:   getEnv("KAFKA_TOPIC_EVENTS", "dashboard-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "fashionstock-dashboard"),
			DedupTTL:      durations("KAFKA_DEDUP_TTL", "24h"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
			SampleRatio:    floats("TRACE_SAMPLE_RATIO", "1"),
		},
		Dashboard: DashboardConfig{
			RefreshInterval:  durations("DASHBOARD_REFRESH_INTERVAL", "60s"),
			SnapshotCacheTTL: durations("SNAPSHOT_CACHE_TTL", "24h"),
			CartIdleTimeout:  durations("CART_IDLE_TIMEOUT", "2h"),
			CartSweepEvery:   durations("CART_SWEEP_INTERVAL", "5m"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "dev-session-secret"),
			TTL:    durations("SESSION_TTL", "12h"),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: invalid port %q", c.Server.Port))
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		errs = append(errs, errors.New("BACKEND_BASE_URL is required"))
	}
	for name, d := range map[string]time.Duration{
		"BACKEND_TIMEOUT":            c.Backend.Timeout,
		"DASHBOARD_REFRESH_INTERVAL": c.Dashboard.RefreshInterval,
		"CART_SWEEP_INTERVAL":        c.Dashboard.CartSweepEvery,
		"CART_IDLE_TIMEOUT":          c.Dashboard.CartIdleTimeout,
		"SESSION_TTL":                c.Session.TTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Backend.RateLimitRPS < 0 {
		errs = append(errs, errors.New("BACKEND_RATE_LIMIT_RPS cannot be negative"))
	}
	if c.Observ.SampleRatio < 0 || c.Observ.SampleRatio > 1 {
		errs = append(errs, errors.New("TRACE_SAMPLE_RATIO must be between 0 and 1"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Server.Env == "production" && c.Session.Secret == "dev-session-secret" {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
