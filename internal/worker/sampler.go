package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DepthReader reports how many actions are waiting.
type DepthReader interface {
	Depth(ctx context.Context) (int64, error)
}

// DepthSampler polls the queue depth on an interval and publishes it,
// typically to the queue depth gauge.
type DepthSampler struct {
	q        DepthReader
	interval time.Duration
	report   func(depth int64)
	logger   *zap.Logger
}

func NewDepthSampler(q DepthReader, interval time.Duration, report func(int64), logger *zap.Logger) *DepthSampler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if report == nil {
		report = func(int64) {}
	}
	return &DepthSampler{q: q, interval: interval, report: report, logger: logger}
}

// Run ticks every interval until ctx is cancelled.
func (s *DepthSampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("depth sampler started", zap.Duration("interval", s.interval))
	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("depth sampler stopping")
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *DepthSampler) poll(ctx context.Context) {
	depth, err := s.q.Depth(ctx)
	if err != nil {
		s.logger.Warn("queue depth poll error", zap.Error(err))
		return
	}
	s.report(depth)
}
