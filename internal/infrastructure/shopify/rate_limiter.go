package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// Shopify's REST Admin API leak rate for standard plans.
	defaultRequestsPerSecond = 2
	limiterKeyPrefix         = "orderdesk:shopify:rl:"
)

// RateLimiter throttles outbound Admin API calls per shop using a Redis
// fixed window, so multiple service instances share one budget. When Redis
// is unavailable the limiter degrades to a pass-through: a throttling outage
// must not block OAuth or webhook cleanup.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	logger zerolog.Logger
}

// NewRateLimiter creates a per-shop rate limiter. rdb may be nil, which
// disables throttling.
func NewRateLimiter(rdb *redis.Client, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  defaultRequestsPerSecond,
		logger: logger,
	}
}

// Wait blocks until a request slot for the shop is available or the context
// is done.
func (rl *RateLimiter) Wait(ctx context.Context, shopDomain string) {
	if rl == nil || rl.rdb == nil {
		return
	}
	for {
		window := time.Now().Unix()
		key := fmt.Sprintf("%s%s:%d", limiterKeyPrefix, shopDomain, window)

		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			rl.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Rate limiter unavailable, proceeding without throttle")
			return
		}
		if count == 1 {
			rl.rdb.Expire(ctx, key, 2*time.Second)
		}
		if count <= int64(rl.limit) {
			return
		}

		// Window exhausted, sleep to its end and try the next one.
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(time.Unix(window+1, 0))):
		}
	}
}
