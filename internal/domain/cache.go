package domain

import (
	"context"
	"strconv"
	"time"
)

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out between processes.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// StateChannel is the pub/sub channel carrying view state for a product.
func StateChannel(productID int64) string {
	return "auction:" + strconv.FormatInt(productID, 10) + ":state"
}
