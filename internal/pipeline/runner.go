package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// cycleLockKey names the distributed lock that keeps replicas from running
// overlapping cycles.
const cycleLockKey = "cycle"

// feedRateKey is the shared rate-limit key for upstream feed polling.
const feedRateKey = "feeds"

// Runner executes cycles on a fixed interval. Locks and limiter are
// optional; with a lock manager only one replica observes at a time, and
// with a rate limiter the upstream feeds are polled no faster than
// feedLimit requests per minute across all replicas.
type Runner struct {
	cycle     *Cycle
	interval  time.Duration
	locks     domain.LockManager
	limiter   domain.RateLimiter
	feedLimit int
	logger    *slog.Logger
}

// NewRunner creates a Runner for watch mode. feedLimit is the feed polling
// budget in requests per minute; zero disables limiting.
func NewRunner(cycle *Cycle, interval time.Duration, locks domain.LockManager, limiter domain.RateLimiter, feedLimit int, logger *slog.Logger) *Runner {
	return &Runner{
		cycle:     cycle,
		interval:  interval,
		locks:     locks,
		limiter:   limiter,
		feedLimit: feedLimit,
		logger:    logger.With(slog.String("component", "pipeline.runner")),
	}
}

// Run executes one cycle immediately, then one per tick until the context
// ends. A failed cycle is logged and the loop continues; only context
// cancellation stops the runner.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("watch loop starting", slog.Duration("interval", r.interval))

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watch loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, cycleLockKey, r.interval)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				r.logger.Debug("cycle lock held elsewhere, skipping tick")
				return
			}
			r.logger.Warn("cycle lock acquire failed", slog.String("error", err.Error()))
			return
		}
		defer unlock()
	}

	if r.limiter != nil && r.feedLimit > 0 {
		if err := r.limiter.Wait(ctx, feedRateKey, r.feedLimit, time.Minute); err != nil {
			if ctx.Err() == nil {
				r.logger.Warn("rate limiter wait failed", slog.String("error", err.Error()))
			}
			return
		}
	}

	if _, err := r.cycle.Run(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("cycle failed", slog.String("error", err.Error()))
	}
}

// RunExporter runs the aged-archive export on a fixed interval, exporting
// rows older than maxAge on each pass.
func RunExporter(ctx context.Context, export func(context.Context, time.Time) (int64, error), interval, maxAge time.Duration, logger *slog.Logger) error {
	logger = logger.With(slog.String("component", "pipeline.exporter"))
	logger.Info("export loop starting",
		slog.Duration("interval", interval),
		slog.Duration("max_age", maxAge))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("export loop stopped")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-maxAge)
			n, err := export(ctx, cutoff)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("export failed", slog.String("error", err.Error()))
				}
				continue
			}
			if n > 0 {
				logger.Info("archive rows exported",
					slog.Int64("rows", n),
					slog.String("cutoff", cutoff.Format(time.RFC3339)))
			}
		}
	}
}
