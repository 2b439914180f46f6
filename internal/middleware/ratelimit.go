package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/logging"
	"github.com/AnshRaj112/canteen-backend/pkg/clientip"
)

const (
	RateLimitWindow = 60 * time.Second
	// RateLimitMaxRequests covers a busy kitchen: every mutation is a bucket write.
	RateLimitMaxRequests = 120
	RateLimitKeyPrefix   = "ratelimit:"
	BlockedIPKeyPrefix   = "blocked_ip:"
	BlockedIPDuration    = 15 * time.Minute
)

// RedisRateLimit is a fixed-window per-IP limit shared by all instances. An IP
// that exceeds the window is blocked for BlockedIPDuration. Redis failures fail open.
func RedisRateLimit(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientip.ForwardedClientIP(r)

			blockedKey := BlockedIPKeyPrefix + ip
			if blocked, err := rdb.Exists(ctx, blockedKey).Result(); err == nil && blocked > 0 {
				writeTooMany(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
				return
			}

			key := RateLimitKeyPrefix + ip
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logging.L().Warn("rate limit unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			// The first hit opens the window.
			if n == 1 {
				rdb.Expire(ctx, key, RateLimitWindow)
			}

			count := int(n)
			if count > RateLimitMaxRequests {
				if err := rdb.Set(ctx, blockedKey, "1", BlockedIPDuration).Err(); err != nil {
					logging.L().Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
				}
				writeTooMany(w, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", int(BlockedIPDuration.Seconds())))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(RateLimitMaxRequests-count))
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooMany(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, `{"success":false,"message":%q}`, message)
}
