package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies AUCTIONVIEW_* environment variable overrides, and
// returns the final Config. A missing file is not an error when path is the
// default "config.toml"; every setting can then come from the environment.
// The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !(os.IsNotExist(err) && path == DefaultPath) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// DefaultPath is the configuration file used when -config is not given.
const DefaultPath = "config.toml"

// applyEnvOverrides reads well-known AUCTIONVIEW_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Auction ──
	setStr(&cfg.Auction.APIHost, "AUCTIONVIEW_AUCTION_API_HOST")
	setInt64(&cfg.Auction.ProductID, "AUCTIONVIEW_AUCTION_PRODUCT_ID")
	setStr(&cfg.Auction.Precision, "AUCTIONVIEW_AUCTION_PRECISION")
	setDuration(&cfg.Auction.AuctionLength, "AUCTIONVIEW_AUCTION_LENGTH")
	setDuration(&cfg.Auction.RequestTimeout, "AUCTIONVIEW_AUCTION_REQUEST_TIMEOUT")
	setStr(&cfg.Auction.Timezone, "AUCTIONVIEW_AUCTION_TIMEZONE")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "AUCTIONVIEW_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "AUCTIONVIEW_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "AUCTIONVIEW_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "AUCTIONVIEW_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "AUCTIONVIEW_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "AUCTIONVIEW_REDIS_TLS_ENABLED")

	// ── Server ──
	setInt(&cfg.Server.Port, "AUCTIONVIEW_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "AUCTIONVIEW_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "AUCTIONVIEW_SERVER_API_KEY")
	setInt(&cfg.Server.BidRateLimit, "AUCTIONVIEW_SERVER_BID_RATE_LIMIT")
	setDuration(&cfg.Server.BidRateWindow, "AUCTIONVIEW_SERVER_BID_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "AUCTIONVIEW_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "AUCTIONVIEW_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "AUCTIONVIEW_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "AUCTIONVIEW_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "AUCTIONVIEW_MODE")
	setStr(&cfg.LogLevel, "AUCTIONVIEW_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
