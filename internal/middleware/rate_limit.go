package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	libredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/chang180/timesheet-saas-sub001/internal/config"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

// RateLimitMiddleware limits tenant API traffic per company and user.
type RateLimitMiddleware struct {
	cfg     config.RateLimitConfig
	limiter *limiter.Limiter
	logger  utils.Logger
}

// NewRateLimitMiddleware builds the limiter. With a redis URL the
// counters are shared across instances; otherwise an in-memory store
// serves a single process.
func NewRateLimitMiddleware(cfg config.RateLimitConfig, redisURL string, logger utils.Logger) *RateLimitMiddleware {
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(cfg.RequestsPerMinute),
	}

	var store limiter.Store
	if redisURL != "" {
		opt, err := libredis.ParseURL(redisURL)
		if err == nil {
			client := libredis.NewClient(opt)
			store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{
				Prefix: "ratelimit",
			})
			if err != nil {
				store = nil
			}
		}
		if store == nil {
			logger.Warn("Falling back to in-memory rate limit store", utils.LogFields{"redis_url": redisURL})
		}
	}
	if store == nil {
		store = memory.NewStore()
	}

	return &RateLimitMiddleware{
		cfg:     cfg,
		limiter: limiter.New(store, rate),
		logger:  logger,
	}
}

// Limit enforces the per-tenant per-user budget. Unauthenticated or
// untenanted requests fall back to the client IP as the key.
func (m *RateLimitMiddleware) Limit() gin.HandlerFunc {
	if !m.cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := rateLimitKey(c)

		lctx, err := m.limiter.Get(c.Request.Context(), key)
		if err != nil {
			// Limiter store failure never blocks traffic.
			m.logger.Error("Rate limiter store failure", err, nil)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			retryAfter := lctx.Reset - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			utils.JSONResponse(c, http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "rate_limited",
					"message":     "Too many requests",
					"retry_after": retryAfter,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// rateLimitKey is "tenant:{companyID}:user:{userID}" within a tenant;
// anything else shares an ip bucket.
func rateLimitKey(c *gin.Context) string {
	tc := tenant.FromGin(c)
	user := CurrentUser(c)
	if tc != nil && user != nil {
		return fmt.Sprintf("tenant:%d:user:%d", tc.CompanyID, user.ID)
	}
	return "ip:" + c.ClientIP()
}
