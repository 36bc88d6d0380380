package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultEmbedDenylist is used when ARCADE_EMBED_DENYLIST is unset.
const DefaultEmbedDenylist = "orteil.dashnet.org"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Catalog
	FallbackFile        string        // optional YAML catalog, empty = embedded default set
	ReloadInterval      time.Duration // interval to reload the fallback file (default: 1h)
	RemoteURL           string        // optional base URL of the remote catalog, empty = fallback only
	RemoteTimeout       time.Duration // per-request timeout against the remote catalog
	FreshnessWindow     time.Duration // how long list results stay fresh (default: 5m)
	ByIDFreshnessWindow time.Duration // how long by-id lookups stay fresh (default: 10m)
	EmbedDenylist       []string      // hostname substrings that refuse framing

	// Sessions
	FrameLoadGrace    time.Duration // inferred frame success after this delay, 0 = explicit signal only
	SessionIdleTTL    time.Duration // idle sessions older than this are collected
	SessionGCInterval time.Duration // interval between idle session sweeps

	// Redis (optional shared cache)
	RedisAddr             string        // ex: "localhost:6379", empty = no shared cache
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password when RedisAddr is set
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts    []string // optional, restrict access to specific Host headers
	AllowedCIDRS    []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateLimitBurst  int      // session creations allowed in a burst per client IP
	RateLimitPerMin int      // sustained session creations per minute per client IP
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ARCADE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ARCADE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("ARCADE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ARCADE_PRETTY_LOG", false),

		// Catalog
		FallbackFile:        getenv("ARCADE_FALLBACK_FILE", ""),
		ReloadInterval:      mustDuration("ARCADE_RELOAD_INTERVAL", time.Hour),
		RemoteURL:           strings.TrimRight(getenv("ARCADE_REMOTE_URL", ""), "/"),
		RemoteTimeout:       mustDuration("ARCADE_REMOTE_TIMEOUT", 5*time.Second),
		FreshnessWindow:     mustDuration("ARCADE_FRESHNESS_WINDOW", 5*time.Minute),
		ByIDFreshnessWindow: mustDuration("ARCADE_BYID_FRESHNESS_WINDOW", 10*time.Minute),
		EmbedDenylist:       splitAndTrim(getenv("ARCADE_EMBED_DENYLIST", DefaultEmbedDenylist)),

		// Sessions
		FrameLoadGrace:    mustDuration("ARCADE_FRAME_LOAD_GRACE", 0),
		SessionIdleTTL:    mustDuration("ARCADE_SESSION_IDLE_TTL", 2*time.Hour),
		SessionGCInterval: mustDuration("ARCADE_SESSION_GC_INTERVAL", 10*time.Minute),

		// Redis settings
		RedisAddr:             getenv("ARCADE_REDIS_ADDR", ""),
		RedisUser:             getenv("ARCADE_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("ARCADE_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("ARCADE_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("ARCADE_REDIS_DB", 0),
		RedisDT:               mustDuration("ARCADE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("ARCADE_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("ARCADE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("ARCADE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("ARCADE_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("ARCADE_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("ARCADE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("ARCADE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("ARCADE_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("ARCADE_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    splitAndTrim(getenv("ARCADE_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("ARCADE_TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("ARCADE_RATE_LIMIT_BURST", 10),
		RateLimitPerMin: getenvInt("ARCADE_RATE_LIMIT_PER_MIN", 30),
	}

	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: ARCADE_REDIS_PASSWORD is required when ARCADE_REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.FrameLoadGrace < 0 {
		panic(fmt.Sprintf("❌ FATAL: ARCADE_FRAME_LOAD_GRACE must be >= 0, got %v", cfg.FrameLoadGrace))
	}
	if cfg.FreshnessWindow <= 0 || cfg.ByIDFreshnessWindow <= 0 {
		panic("❌ FATAL: ARCADE_FRESHNESS_WINDOW and ARCADE_BYID_FRESHNESS_WINDOW must be > 0")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether a shared Redis cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// RemoteEnabled reports whether a remote catalog is configured.
func (c *Config) RemoteEnabled() bool {
	return c.RemoteURL != ""
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

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
