package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
)

const keyLoyaltyLookup = "loyalty:lookup:%s"

// LookupLimiter throttles loyalty status/history lookups per phone
// number. Nil (redis not configured) means unlimited.
type LookupLimiter struct {
	bucket *TokenBucket

	rate  float64
	burst int
}

func NewLookupLimiter(cfg config.Config, client *redis.Client) (*LookupLimiter, error) {
	if client == nil {
		return nil, nil
	}
	if cfg.RateLimitCapacity <= 0 || cfg.RateLimitRefillPerMin <= 0 {
		return nil, errors.New("rate limit capacity and refill must be positive")
	}

	return &LookupLimiter{
		bucket: NewTokenBucket(client),
		rate:   float64(cfg.RateLimitRefillPerMin) / 60.0,
		burst:  cfg.RateLimitCapacity,
	}, nil
}

func (l *LookupLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *LookupLimiter) Allow(ctx context.Context, phone string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyLoyaltyLookup, strings.TrimSpace(phone))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

// NewClient builds the shared redis client, or nil when no address is
// configured so every consumer falls back to its disabled mode.
func NewClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return client
}
