package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
	LogDir    string
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Env          string
	AllowOrigins []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type SessionConfig struct {
	Secret string
	// TTL of zero issues tokens that stay valid until logout.
	TTL time.Duration
}

type RateLimitConfig struct {
	Enabled   bool
	RPS       int
	Burst     int
	RedisURL  string
	CacheSize int           // in-process limiters kept, one per client
	IdleTTL   time.Duration // in-process limiter dropped after this long unused
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether activity publishing has somewhere to go.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3333"),
			Env:          getEnv("APP_ENV", "development"),
			AllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			URL:          getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=eventboard port=5432 sslmode=disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "secret_key_change_me"),
			TTL:    getEnvDuration("SESSION_TTL", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:   getEnvBool("RATE_LIMIT_ENABLED", false),
			RPS:       getEnvInt("RATE_LIMIT_RPS", 20),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 40),
			RedisURL:  getEnv("REDIS_URL", ""),
			CacheSize: getEnvInt("RATE_LIMIT_CACHE_SIZE", 10000),
			IdleTTL:   getEnvDuration("RATE_LIMIT_IDLE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "event-activity"),
		},
		LogDir:   getEnv("LOG_DIR", "logs"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s", "12h") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
