package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenPort      string        `yaml:"listen_port"`      // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // ex: 5s
	PublicBaseURL   string        `yaml:"public_base_url"`  // ex: "https://stellar.domain.ext" (used to build the OAuth redirect URI)

	LogLevel  string `yaml:"log_level"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)

	// Google OAuth
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`

	// Sessions
	SessionMode   string        `yaml:"session_mode"`   // "store" (KV-backed) | "token" (stateless HMAC)
	SessionTTL    time.Duration `yaml:"session_ttl"`    // validity window for sessions and cookies (default: 30 days)
	SessionSecret string        `yaml:"session_secret"` // HMAC key, required only in "token" mode
	SecureCookies bool          `yaml:"-"`              // env-only; false only for plain-HTTP local dev

	// KV store
	KVBackend string `yaml:"kv_backend"` // "redis" | "memory"

	// Redis
	RedisAddr           string        `yaml:"redis_addr"` // ex: "localhost:6379"
	RedisUser           string        `yaml:"redis_user"`
	RedisPassword       string        `yaml:"redis_password"`
	RedisDB             int           `yaml:"redis_db"`
	RedisDT             time.Duration `yaml:"redis_dial_timeout"`
	RedisRT             time.Duration `yaml:"redis_read_timeout"`
	RedisWT             time.Duration `yaml:"redis_write_timeout"`
	RedisMaxWait        time.Duration `yaml:"redis_max_wait"`
	RedisPingTimeout    time.Duration `yaml:"redis_ping_timeout"`
	RedisPoolSize       int           `yaml:"redis_pool_size"`
	RedisConnectTimeout time.Duration `yaml:"redis_connect_timeout"`
	RedisRetryInterval  time.Duration `yaml:"redis_retry_interval"`
	RedisWarnThreshold  int           `yaml:"redis_warn_threshold"`

	// Rate limiting (auth + bulk import endpoints)
	RateLimitBurst  int  `yaml:"rate_limit_burst"`
	RateLimitPerMin int  `yaml:"rate_limit_per_min"`
	TrustProxy      bool `yaml:"trust_proxy"` // true => trust X-Forwarded-For headers

	// Maintenance
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval"` // expired-session sweep (default: 1h)
}

// Load builds the configuration from the environment. If STELLAR_CONFIG_FILE
// points to a YAML file it is read first and environment variables override it.
func Load() *Config {
	cfg := &Config{}

	if path := os.Getenv("STELLAR_CONFIG_FILE"); path != "" {
		loadFile(path, cfg)
	}

	// Server settings
	cfg.ListenPort = getenv("STELLAR_LISTEN_PORT", valOr(cfg.ListenPort, ":8080"))
	cfg.ShutdownTimeout = mustDuration("STELLAR_SHUTDOWN_TIMEOUT", durOr(cfg.ShutdownTimeout, 5*time.Second))
	cfg.PublicBaseURL = getenv("STELLAR_PUBLIC_BASE_URL", cfg.PublicBaseURL)

	// Logging
	cfg.LogLevel = getenv("STELLAR_LOG_LEVEL", valOr(cfg.LogLevel, "info"))
	cfg.PrettyLog = mustBool("STELLAR_PRETTY_LOG", cfg.PrettyLog)

	// Google OAuth
	cfg.GoogleClientID = getenv("STELLAR_GOOGLE_CLIENT_ID", cfg.GoogleClientID)
	cfg.GoogleClientSecret = getenv("STELLAR_GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret)

	// Sessions
	cfg.SessionMode = getenv("STELLAR_SESSION_MODE", valOr(cfg.SessionMode, "store"))
	cfg.SessionTTL = mustDuration("STELLAR_SESSION_TTL", durOr(cfg.SessionTTL, 30*24*time.Hour))
	cfg.SessionSecret = getenv("STELLAR_SESSION_SECRET", cfg.SessionSecret)
	cfg.SecureCookies = mustBool("STELLAR_SECURE_COOKIES", true)

	// KV store
	cfg.KVBackend = getenv("STELLAR_KV_BACKEND", valOr(cfg.KVBackend, "redis"))

	// Redis settings
	if cfg.KVBackend == "redis" {
		cfg.RedisAddr = getenv("STELLAR_REDIS_ADDR", cfg.RedisAddr)
		if cfg.RedisAddr == "" {
			panic("FATAL: STELLAR_REDIS_ADDR is required when STELLAR_KV_BACKEND=redis")
		}
	}
	cfg.RedisUser = getenv("STELLAR_REDIS_USERNAME", valOr(cfg.RedisUser, "default"))
	cfg.RedisPassword = getenv("STELLAR_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvInt("STELLAR_REDIS_DB", cfg.RedisDB)
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", durOr(cfg.RedisDT, 5*time.Second))
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", durOr(cfg.RedisRT, 3*time.Second))
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", durOr(cfg.RedisWT, 3*time.Second))
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", durOr(cfg.RedisMaxWait, 10*time.Second))
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", durOr(cfg.RedisPingTimeout, 5*time.Second))
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", intOr(cfg.RedisPoolSize, 10))
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", durOr(cfg.RedisConnectTimeout, 30*time.Second))
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", durOr(cfg.RedisRetryInterval, 2*time.Second))
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", intOr(cfg.RedisWarnThreshold, 3))

	// Rate limiting
	cfg.RateLimitBurst = getenvInt("STELLAR_RATE_LIMIT_BURST", intOr(cfg.RateLimitBurst, 10))
	cfg.RateLimitPerMin = getenvInt("STELLAR_RATE_LIMIT_PER_MIN", intOr(cfg.RateLimitPerMin, 30))
	cfg.TrustProxy = mustBool("STELLAR_TRUST_PROXY", cfg.TrustProxy)

	// Maintenance
	cfg.SessionSweepInterval = mustDuration("STELLAR_SESSION_SWEEP_INTERVAL", durOr(cfg.SessionSweepInterval, time.Hour))

	cfg.validate()

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.GoogleClientSecret = "***REDACTED***"
		cfgCopy.SessionSecret = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (c *Config) validate() {
	switch c.SessionMode {
	case "store":
	case "token":
		if c.SessionSecret == "" {
			panic("FATAL: STELLAR_SESSION_SECRET is required when STELLAR_SESSION_MODE=token")
		}
	default:
		panic(fmt.Sprintf("FATAL: invalid STELLAR_SESSION_MODE %q (want store or token)", c.SessionMode))
	}

	switch c.KVBackend {
	case "redis", "memory":
	default:
		panic(fmt.Sprintf("FATAL: invalid STELLAR_KV_BACKEND %q (want redis or memory)", c.KVBackend))
	}
}

func loadFile(path string, cfg *Config) {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("FATAL: cannot read config file %s: %v", path, err))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		panic(fmt.Sprintf("FATAL: cannot parse config file %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func valOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func durOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
