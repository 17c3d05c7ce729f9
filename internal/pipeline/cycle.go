// Package pipeline drives the observation loop: fetch both feeds, correlate,
// valuate, persist, and fan out signals. It also hosts the position
// reconciler and the cold-storage exporter schedule.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/loungebot/internal/correlate"
	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/valuation"
)

// Pub/Sub channel and stream names for cycle signals.
const (
	SignalChannel = "signals.high_ev"
	SignalStream  = "stream:signals"
)

// MoneylineFeed fetches the bookmaker board.
type MoneylineFeed interface {
	Fetch(ctx context.Context) ([]domain.MoneylineQuote, error)
}

// PoolFeed fetches the pari-mutuel board.
type PoolFeed interface {
	Fetch(ctx context.Context) ([]domain.PoolQuote, error)
}

// SignalThresholds gate which valuations are published as signals.
type SignalThresholds struct {
	MinEV   float64
	MinPool float64
}

// Cycle is one full observation pass. Cache and bus are optional; a nil
// value skips that fan-out.
type Cycle struct {
	moneyline  MoneylineFeed
	pool       PoolFeed
	correlator *correlate.Correlator
	engine     *valuation.Engine
	store      domain.SnapshotStore
	cache      domain.SnapshotCache
	bus        domain.SignalBus
	thresholds SignalThresholds
	logger     *slog.Logger
}

// NewCycle assembles an observation cycle.
func NewCycle(
	moneyline MoneylineFeed,
	pool PoolFeed,
	correlator *correlate.Correlator,
	engine *valuation.Engine,
	store domain.SnapshotStore,
	cache domain.SnapshotCache,
	bus domain.SignalBus,
	thresholds SignalThresholds,
	logger *slog.Logger,
) *Cycle {
	return &Cycle{
		moneyline:  moneyline,
		pool:       pool,
		correlator: correlator,
		engine:     engine,
		store:      store,
		cache:      cache,
		bus:        bus,
		thresholds: thresholds,
		logger:     logger.With(slog.String("component", "pipeline.cycle")),
	}
}

// Result summarizes one cycle.
type Result struct {
	RunID      string
	Moneyline  int
	Pool       int
	Paired     int
	Unpaired   int
	Inserted   int
	Updated    int
	Skipped    int
	Signals    int
	Valuations []domain.Valuation
}

// Signal is the payload published for a high-EV valuation.
type Signal struct {
	RunID     string           `json:"run_id"`
	Valuation domain.Valuation `json:"valuation"`
}

// Run executes one observation pass. An unavailable feed degrades that side
// to an empty board rather than failing the cycle; persistence errors abort.
func (c *Cycle) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	logger := c.logger.With(slog.String("run_id", res.RunID))

	var (
		mlQuotes   []domain.MoneylineQuote
		poolQuotes []domain.PoolQuote
	)

	g, fetchCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quotes, err := c.moneyline.Fetch(fetchCtx)
		if err != nil {
			if errors.Is(err, domain.ErrFeedUnavailable) || errors.Is(err, domain.ErrRecordMalformed) {
				logger.Warn("moneyline feed degraded", slog.String("error", err.Error()))
				return nil
			}
			return err
		}
		mlQuotes = quotes
		return nil
	})
	g.Go(func() error {
		quotes, err := c.pool.Fetch(fetchCtx)
		if err != nil {
			if errors.Is(err, domain.ErrFeedUnavailable) || errors.Is(err, domain.ErrRecordMalformed) {
				logger.Warn("pool feed degraded", slog.String("error", err.Error()))
				return nil
			}
			return err
		}
		poolQuotes = quotes
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("pipeline: fetch feeds: %w", err)
	}
	res.Moneyline = len(mlQuotes)
	res.Pool = len(poolQuotes)

	pairs, unpaired := c.correlator.Correlate(mlQuotes, poolQuotes)
	res.Paired = len(pairs)
	res.Unpaired = len(unpaired)

	// Valuate pairs concurrently; order does not matter downstream.
	valuations := make([]domain.Valuation, len(pairs))
	vg, vctx := errgroup.WithContext(ctx)
	vg.SetLimit(8)
	for i, pair := range pairs {
		vg.Go(func() error {
			if err := vctx.Err(); err != nil {
				return err
			}
			v, err := c.engine.Valuate(pair)
			if err != nil {
				return fmt.Errorf("valuate match %d: %w", pair.ID(), err)
			}
			valuations[i] = v
			return nil
		})
	}
	if err := vg.Wait(); err != nil {
		return res, fmt.Errorf("pipeline: %w", err)
	}
	res.Valuations = valuations

	for i, pair := range pairs {
		snap := c.snapshotFromPair(pair)
		applied, err := c.store.Insert(ctx, snap)
		if err != nil {
			return res, fmt.Errorf("pipeline: insert snapshot %d: %w", snap.ID, err)
		}
		if applied {
			res.Inserted++
		} else {
			updated, err := c.store.Update(ctx, snap)
			if err != nil {
				return res, fmt.Errorf("pipeline: update snapshot %d: %w", snap.ID, err)
			}
			if updated {
				res.Updated++
			} else {
				res.Skipped++
			}
		}

		if c.cache != nil {
			if err := c.cache.Set(ctx, snap); err != nil {
				logger.Warn("cache write failed",
					slog.Int64("match_id", snap.ID),
					slog.String("error", err.Error()))
			}
		}

		if c.publishSignal(ctx, logger, res.RunID, valuations[i]) {
			res.Signals++
		}
	}

	logger.Info("cycle complete",
		slog.Int("moneyline", res.Moneyline),
		slog.Int("pool", res.Pool),
		slog.Int("paired", res.Paired),
		slog.Int("unpaired", res.Unpaired),
		slog.Int("inserted", res.Inserted),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped),
		slog.Int("signals", res.Signals))
	return res, nil
}

// snapshotFromPair projects a correlated pair onto the persisted shape. Pool
// values are reduced to the reporting currency here; everything derived
// beyond that is recomputed on read.
func (c *Cycle) snapshotFromPair(pair domain.MatchPair) domain.Snapshot {
	v1, v2 := c.engine.ReducePools(pair.Pool)
	return domain.Snapshot{
		ID:            pair.Pool.ID,
		PoolStartTime: pair.Pool.StartTime,
		MLStartTime:   pair.Moneyline.StartTime,
		Status:        pair.Pool.Status,
		Team1:         pair.Pool.Team1,
		Team2:         pair.Pool.Team2,
		PoolValue1:    v1,
		PoolValue2:    v2,
		Moneyline1:    pair.Moneyline.Line1,
		Moneyline2:    pair.Moneyline.Line2,
	}
}

func (c *Cycle) publishSignal(ctx context.Context, logger *slog.Logger, runID string, v domain.Valuation) bool {
	if c.bus == nil || !c.isSignal(v) {
		return false
	}

	payload, err := json.Marshal(Signal{RunID: runID, Valuation: v})
	if err != nil {
		return false
	}
	if err := c.bus.Publish(ctx, SignalChannel, payload); err != nil {
		logger.Warn("signal publish failed",
			slog.Int64("match_id", v.MatchID),
			slog.String("error", err.Error()))
	}
	if err := c.bus.StreamAppend(ctx, SignalStream, payload); err != nil {
		logger.Warn("signal stream append failed",
			slog.Int64("match_id", v.MatchID),
			slog.String("error", err.Error()))
	}
	return true
}

func (c *Cycle) isSignal(v domain.Valuation) bool {
	if v.Degenerate() {
		return false
	}
	if v.PoolValue[0] <= c.thresholds.MinPool || v.PoolValue[1] <= c.thresholds.MinPool {
		return false
	}
	return v.EV[0] > c.thresholds.MinEV || v.EV[1] > c.thresholds.MinEV
}
