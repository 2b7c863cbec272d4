// Package config loads runtime settings from the environment (optionally seeded
// from a .env file) and applies defaults for anything left unset.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RateLimitConfig bounds how fast one realtime session may send chat messages.
type RateLimitConfig struct {
	Burst     int
	PerSecond float64
}

// QueueConfig mirrors the asynq worker knobs.
type QueueConfig struct {
	Concurrency int
	Queues      map[string]int
}

// Config holds the process configuration.
type Config struct {
	HTTPAddr              string
	DatabaseURL           string
	DBMaxConns            int
	AutoMigrate           bool
	RedisURL              string
	JWTSecretKey          string
	FanoutChannel         string
	MaxMessageLength      int
	RequireRoomMembership bool
	AllowedOrigins        []string
	RateLimit             RateLimitConfig
	MemberCacheTTL        time.Duration
	Queue                 QueueConfig
	LogLevel              string
	LogFormat             string
}

// Default returns a Config populated with the defaults for every optional setting.
func Default() Config {
	return Config{
		HTTPAddr:              ":8080",
		FanoutChannel:         "chat",
		MaxMessageLength:      700,
		RequireRoomMembership: true,
		AllowedOrigins:        []string{"http://localhost:3000"},
		RateLimit: RateLimitConfig{
			Burst:     10,
			PerSecond: 5,
		},
		MemberCacheTTL: 5 * time.Minute,
		Queue: QueueConfig{
			Concurrency: 10,
			Queues:      map[string]int{"chat": 1, "default": 1},
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// LoadDotEnv seeds the process environment from a .env file in the working
// directory. A missing file is not fatal; callers usually just log the error.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil {
		return fmt.Errorf("config: .env not loaded: %w", err)
	}
	return nil
}

// Load reads the process environment. It returns an error when a required
// setting is missing.
func Load() (Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if v := get("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.DatabaseURL = get("DB_URL")
	// pgxpool sizes its pool with an int32.
	cfg.DBMaxConns = min(parsePositiveInt(get("DB_MAX_CONNS"), cfg.DBMaxConns), math.MaxInt32)
	cfg.AutoMigrate = parseBool(get("DB_AUTO_MIGRATE"), false)
	cfg.RedisURL = get("REDIS_URL")
	cfg.JWTSecretKey = get("JWT_SECRET_KEY")

	if v := get("FANOUT_CHANNEL"); v != "" {
		cfg.FanoutChannel = v
	}
	cfg.MaxMessageLength = parsePositiveInt(get("MAX_MESSAGE_LENGTH"), cfg.MaxMessageLength)
	cfg.RequireRoomMembership = parseBool(get("REQUIRE_ROOM_MEMBERSHIP"), cfg.RequireRoomMembership)

	if v := get("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = parseList(v)
	}

	cfg.RateLimit.Burst = parsePositiveInt(get("RATE_LIMIT_BURST"), cfg.RateLimit.Burst)
	if v := get("RATE_LIMIT_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimit.PerSecond = f
		}
	}

	if v := get("MEMBER_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.MemberCacheTTL = d
		}
	}

	cfg.Queue.Concurrency = parsePositiveInt(get("ASYNQ_CONCURRENCY"), cfg.Queue.Concurrency)
	if v := get("ASYNQ_QUEUES"); v != "" {
		if parsed := ParseQueueWeights(v); len(parsed) > 0 {
			cfg.Queue.Queues = parsed
		}
	}

	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := get("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	return cfg, cfg.Validate()
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DB_URL is not set"))
	}
	if c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is not set"))
	}
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is not set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseQueueWeights parses strings like "critical=6,default=3,low=1" into a map.
// Entries without a weight get weight 1.
func ParseQueueWeights(s string) map[string]int {
	res := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		w := 1
		if len(kv) == 2 {
			if i, err := strconv.Atoi(strings.TrimSpace(kv[1])); err == nil && i > 0 {
				w = i
			}
		}
		res[name] = w
	}
	return res
}

func parseList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositiveInt(v string, def int) int {
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}

func parseBool(v string, def bool) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}
