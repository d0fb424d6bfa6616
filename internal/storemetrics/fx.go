package storemetrics

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
)

var Module = fx.Module("storemetrics",
	fx.Provide(NewRegistry),
	fx.Provide(NewPusher),
	fx.Invoke(Register),
)

// NewRegistry returns the dedicated registry for business counters so
// they can be pushed independently of process metrics.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Register installs the recorder and, when a pusher is configured,
// starts the periodic push loop.
func Register(lc fx.Lifecycle, cfg config.Config, registry *prometheus.Registry, pusher Pusher, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Store.Metrics.Enabled {
		return
	}

	setRecorder(&recorder{metrics: newMetrics(registry)})

	if pusher == nil {
		return
	}

	interval := time.Duration(cfg.Store.Metrics.PushIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	log := logger.Named("storemetrics")
	var errorOnce atomic.Bool
	pushOnce := func(ctx context.Context) {
		pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
		defer cancel()
		if err := pusher.Push(pushCtx, registry); err != nil {
			if errorOnce.CompareAndSwap(false, true) {
				log.Warn("store metrics push failed", zap.Error(err))
			}
			return
		}
		errorOnce.Store(false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting store metrics push loop", zap.Duration("interval", interval))
			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				pushOnce(ctx)
				for {
					select {
					case <-ticker.C:
						pushOnce(ctx)
					case <-ctx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			// Final push so counters accrued since the last tick survive restarts.
			pushCtx, pushCancel := context.WithTimeout(stopCtx, defaultPushTimeout)
			defer pushCancel()
			_ = pusher.Push(pushCtx, registry)
			return nil
		},
	})
}
