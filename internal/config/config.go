// Package config defines the top-level configuration for auctionview and
// provides validation helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/auctionview/internal/bidding"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by AUCTIONVIEW_* environment variables.
type Config struct {
	Auction  AuctionConfig `toml:"auction"`
	Redis    RedisConfig   `toml:"redis"`
	Server   ServerConfig  `toml:"server"`
	Notify   NotifyConfig  `toml:"notify"`
	Mode     string        `toml:"mode"`
	LogLevel string        `toml:"log_level"`
}

// AuctionConfig describes the listing being viewed and the external auction
// service that owns it.
type AuctionConfig struct {
	APIHost   string `toml:"api_host"`
	ProductID int64  `toml:"product_id"`
	// Precision selects how the next acceptable bid is derived from the
	// current bid: "decimal" or "truncated".
	Precision      string   `toml:"precision"`
	AuctionLength  duration `toml:"auction_length"`
	RequestTimeout duration `toml:"request_timeout"`
	// Timezone is an IANA name used to render the end date. Empty means the
	// host's local zone.
	Timezone string `toml:"timezone"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "168h", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "168h" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey, when set, is required on every /api request except health.
	APIKey string `toml:"api_key"`
	// BidRateLimit is the number of bid submissions a client may make per
	// BidRateWindow. Zero disables limiting.
	BidRateLimit  int      `toml:"bid_rate_limit"`
	BidRateWindow duration `toml:"bid_rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Auction: AuctionConfig{
			APIHost:        "http://localhost:3000",
			Precision:      string(bidding.PrecisionDecimal),
			AuctionLength:  duration{7 * 24 * time.Hour},
			RequestTimeout: duration{30 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Server: ServerConfig{
			Port:          8000,
			CORSOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			BidRateLimit:  10,
			BidRateWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"bid_placed", "watcher_added"},
		},
		Mode:     "show",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"show":  true,
	"bid":   true,
	"watch": true,
	"serve": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Location resolves Auction.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Auction.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Auction.Timezone)
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: show, bid, watch, serve)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Auction
	if c.Auction.APIHost == "" {
		errs = append(errs, "auction: api_host must not be empty")
	} else if u, err := url.Parse(c.Auction.APIHost); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("auction: api_host %q is not an absolute URL", c.Auction.APIHost))
	}
	if c.Auction.ProductID <= 0 {
		errs = append(errs, "auction: product_id must be positive")
	}
	if _, err := bidding.ParsePrecision(c.Auction.Precision); err != nil {
		errs = append(errs, "auction: "+err.Error())
	}
	if c.Auction.AuctionLength.Duration <= 0 {
		errs = append(errs, "auction: auction_length must be > 0")
	}
	if c.Auction.RequestTimeout.Duration < 0 {
		errs = append(errs, "auction: request_timeout must be >= 0")
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("auction: timezone %q: %v", c.Auction.Timezone, err))
	}

	// Redis and Server are only used by serve mode.
	if strings.ToLower(c.Mode) == "serve" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.BidRateLimit < 0 {
			errs = append(errs, "server: bid_rate_limit must be >= 0")
		}
		if c.Server.BidRateLimit > 0 && c.Server.BidRateWindow.Duration <= 0 {
			errs = append(errs, "server: bid_rate_window must be > 0 when bid_rate_limit is set")
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
