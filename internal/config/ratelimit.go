package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig drives the Redis token-bucket limiter.  Each route group
// (public, auth, api) gets its own bucket sizing and key prefix so that a
// burst against the public menu pages cannot starve authenticated API calls.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// groupDefaults maps a route group to its default capacity and refill
// interval.  Auth endpoints are strict (credential stuffing), public menu
// pages are lenient (QR scans arrive in bursts).
var groupDefaults = map[string]struct {
	capacity int
	refill   time.Duration
}{
	"auth":   {10, 6 * time.Second},
	"api":    {60, time.Second},
	"public": {120, 500 * time.Millisecond},
}

// LoadRateLimitConfig builds the limiter configuration for a route group.
// Group-specific environment variables (RATE_LIMIT_<GROUP>_CAPACITY, ...)
// override the built-in defaults.
func LoadRateLimitConfig(group string) RateLimitConfig {
	g := strings.ToUpper(group)
	def, ok := groupDefaults[strings.ToLower(group)]
	if !ok {
		def = groupDefaults["api"]
	}

	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_"+g+"_CAPACITY", def.capacity),
		RefillTokens:   envInt("RATE_LIMIT_"+g+"_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_"+g+"_REFILL_INTERVAL", def.refill),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         "rl:" + strings.ToLower(group),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
