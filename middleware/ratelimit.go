package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"notes-qa-platform/internal/config"
	"notes-qa-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits requests per IP + endpoint using a Redis fixed
// window. When Redis is unavailable it falls back to a process-local limiter,
// and a Redis error at request time fails open.
func RateLimitMiddleware(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	if rdb == nil {
		return localRateLimit(cfg)
	}

	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		// Set expiration on first request
		if count == 1 {
			rdb.Expire(ctx, key, time.Duration(cfg.RateLimitWindow)*time.Second)
		}

		if count > int64(cfg.RateLimitReqs) {
			rejectRateLimited(c, cfg)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.RateLimitReqs-int(count)))
		c.Next()
	}
}

func localRateLimit(cfg *config.Config) gin.HandlerFunc {
	limiter := rate.NewLimiter(
		rate.Limit(float64(cfg.RateLimitReqs)/float64(cfg.RateLimitWindow)),
		cfg.RateLimitReqs,
	)
	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}
		if !limiter.Allow() {
			rejectRateLimited(c, cfg)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, cfg *config.Config) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
	c.Header("X-RateLimit-Remaining", "0")
	utils.RespondWithError(c, http.StatusTooManyRequests,
		"rate_limit_exceeded",
		"Too many requests. Please try again later.",
		gin.H{
			"retry_after": cfg.RateLimitWindow,
			"limit":       cfg.RateLimitReqs,
		})
	c.Abort()
}
