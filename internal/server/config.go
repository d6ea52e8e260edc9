// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the chat service.
package server

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RateLimitConfig defines the parameters for per-connection line rate limiting.
// A Burst of zero disables limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings.
type Config struct {
	// ListenAddr is the TCP address of the line protocol listener.
	ListenAddr string
	// HTTPAddr serves health, WebSocket and snapshot endpoints. Empty disables it.
	HTTPAddr         string
	AllowedOrigins   []string
	MaxLineSize      int64
	SendBufferSize   int
	AnnounceInterval time.Duration
	ShutdownTimeout  time.Duration
	RateLimit        RateLimitConfig
}

const (
	defaultListenAddr       = ":5003"
	defaultHTTPAddr         = ":8080"
	defaultMaxLineSize      = 4096
	defaultSendBufferSize   = 256
	defaultAnnounceInterval = 3 * time.Second
	defaultShutdownTimeout  = 5 * time.Second
	defaultRateBurst        = 0
)

func defaultConfig() Config {
	return Config{
		ListenAddr: defaultListenAddr,
		HTTPAddr:   defaultHTTPAddr,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxLineSize:      defaultMaxLineSize,
		SendBufferSize:   defaultSendBufferSize,
		AnnounceInterval: defaultAnnounceInterval,
		ShutdownTimeout:  defaultShutdownTimeout,
		RateLimit: RateLimitConfig{
			Burst:          defaultRateBurst,
			RefillInterval: time.Second,
		},
	}
}

// sanitizeConfig replaces unusable values with defaults. HTTPAddr is left
// alone since an empty value disables the HTTP surface.
func sanitizeConfig(cfg Config) Config {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}

	if cfg.MaxLineSize <= 0 {
		cfg.MaxLineSize = defaultMaxLineSize
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}

	if cfg.AnnounceInterval <= 0 {
		cfg.AnnounceInterval = defaultAnnounceInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.RateLimit.Burst < 0 {
		cfg.RateLimit.Burst = 0
	}

	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// LoadConfig loads the given dotenv files (".env" when none are named) into
// the process environment and then builds a Config from it. Missing files
// are ignored; variables already set in the environment win.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return NewConfigFromEnv(), nil
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	// Load CHAT_LISTEN_ADDR
	if addr := os.Getenv("CHAT_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	// Load HTTP_ADDR; "off" disables the HTTP surface
	if addr, ok := os.LookupEnv("HTTP_ADDR"); ok {
		if strings.EqualFold(addr, "off") {
			addr = ""
		}
		cfg.HTTPAddr = addr
	}

	// Load ALLOWED_ORIGINS
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	// Load MAX_LINE_SIZE
	if maxSize := os.Getenv("MAX_LINE_SIZE"); maxSize != "" {
		cfg.MaxLineSize = parseMaxLineSize(maxSize, cfg.MaxLineSize)
	}

	// Load SEND_BUFFER_SIZE
	if size := os.Getenv("SEND_BUFFER_SIZE"); size != "" {
		cfg.SendBufferSize = parseIntValue(size, cfg.SendBufferSize)
	}

	// Load ANNOUNCE_INTERVAL
	if interval := os.Getenv("ANNOUNCE_INTERVAL"); interval != "" {
		cfg.AnnounceInterval = parseSeconds(interval, cfg.AnnounceInterval)
	}

	// Load SHUTDOWN_TIMEOUT
	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseSeconds(timeout, cfg.ShutdownTimeout)
	}

	// Load RATE_LIMIT_BURST; 0 or "off" disables limiting
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseRateBurst(burst, cfg.RateLimit.Burst)
	}

	// Load RATE_LIMIT_REFILL_INTERVAL
	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxLineSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseRateBurst(value string, defaultValue int) int {
	if strings.EqualFold(value, "off") {
		return 0
	}
	if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
