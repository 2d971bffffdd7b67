package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/cache/redis"
	"github.com/alanyoungcy/auctionview/internal/config"
	"github.com/alanyoungcy/auctionview/internal/domain"
	"github.com/alanyoungcy/auctionview/internal/notify"
	"github.com/alanyoungcy/auctionview/internal/platform/auctionapi"
	"github.com/alanyoungcy/auctionview/internal/service"
	"github.com/alanyoungcy/auctionview/internal/view"
)

// Dependencies bundles everything the modes need. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	API     *auctionapi.Client
	View    *view.AuctionView
	Service *service.AuctionService

	// Redis-backed; nil outside serve mode.
	Redis       *redis.Client
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	Notifier *notify.Notifier
}

// needsRedis returns true for modes that fan state out or rate limit.
func needsRedis(mode string) bool {
	return mode == "serve"
}

// Wire constructs the concrete dependencies for cfg and returns them together
// with a cleanup function that releases them.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (serve mode only) ---
	if needsRedis(cfg.Mode) {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		deps.Redis = rc
		deps.RateLimiter = redis.NewRateLimiter(rc)
		deps.SignalBus = redis.NewSignalBus(rc)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Auction view ---
	precision, err := bidding.ParsePrecision(cfg.Auction.Precision)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: timezone: %w", err)
	}

	deps.API = auctionapi.NewClient(cfg.Auction.APIHost, cfg.Auction.RequestTimeout.Duration)
	deps.View = view.New(deps.API, view.Options{
		ProductID:     cfg.Auction.ProductID,
		Precision:     precision,
		AuctionLength: cfg.Auction.AuctionLength.Duration,
		Location:      loc,
		Sink:          view.NewSlogSink(logger),
	})
	deps.Service = service.NewAuctionService(deps.View, deps.SignalBus, deps.Notifier,
		logger.With(slog.String("component", "auction_service")))

	return deps, cleanup, nil
}
