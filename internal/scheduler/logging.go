package scheduler

import (
	"context"

	obscontext "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/context"
	obslogger "github.com/muralikrishna41140/cakeraft-sub001/internal/observability/logger"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

// withJobContext marks the context as system-actor work and stamps a
// correlation id so every log line of one run can be grouped.
func (s *Scheduler) withJobContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	return obscontext.WithActor(ctx, "system", "scheduler")
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	log := obslogger.WithContext(ctx, s.log)
	if cid := correlation.ExtractCorrelationID(ctx); cid != "" {
		log = log.With(zap.String("correlation_id", cid))
	}
	return log
}
