package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/observability/logger"
	obsmetrics "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/metrics"
)

const rateLimitReasonLookupRate = "lookup-rate"

// LoyaltyLookupRateLimit throttles status/history lookups per phone so
// the counter endpoints cannot be used to enumerate customers.
func (s *Server) LoyaltyLookupRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.loyaltyLimiter == nil || !s.loyaltyLimiter.Enabled() {
			c.Next()
			return
		}

		phone := strings.TrimSpace(c.Query("phone"))
		if phone == "" {
			// The handler rejects the missing phone; nothing to key on.
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		result, err := s.loyaltyLimiter.Allow(ctx, phone)
		if err != nil {
			logger.FromContext(ctx).Warn("loyalty lookup rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			denyLoyaltyLookup(c, endpoint, result.RetryAfterSeconds(), s.obsMetrics)
			return
		}

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Next()
	}
}

func denyLoyaltyLookup(c *gin.Context, endpoint string, retryAfter int, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("loyalty lookup rate limit exceeded",
		zap.String("reason", rateLimitReasonLookupRate),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, rateLimitReasonLookupRate, metrics)

	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonLookupRate)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
