package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/notify"
	"github.com/alanyoungcy/loungebot/internal/policy"
	"github.com/alanyoungcy/loungebot/internal/valuation"
)

// WagerClient places and withdraws wagers on the pool site. The bet.Client
// satisfies it.
type WagerClient interface {
	Place(ctx context.Context, matchID int64, side int, amount float64) error
	Cancel(ctx context.Context, matchID int64) error
}

// Reconciler walks matches starting inside the decision window and brings
// the outstanding wagers in line with the policy. Wagers cannot be cancelled
// close to match start, so the window is kept short and reconciliation runs
// near the deadline.
type Reconciler struct {
	store     domain.SnapshotStore
	positions domain.PositionStore
	wagers    WagerClient
	engine    *valuation.Engine
	policy    policy.Config
	window    time.Duration
	notifier  *notify.Notifier
	logger    *slog.Logger
}

// NewReconciler assembles a Reconciler. notifier may be nil.
func NewReconciler(
	store domain.SnapshotStore,
	positions domain.PositionStore,
	wagers WagerClient,
	engine *valuation.Engine,
	cfg policy.Config,
	window time.Duration,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		store:     store,
		positions: positions,
		wagers:    wagers,
		engine:    engine,
		policy:    cfg,
		window:    window,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "pipeline.reconciler")),
	}
}

// Run reconciles every match starting within the window. Per-match failures
// are logged and skipped so one bad match cannot block the rest.
func (r *Reconciler) Run(ctx context.Context) error {
	now := time.Now().Unix()
	before := now + int64(r.window.Seconds()) + 1
	after := now - 1

	upcoming := domain.StatusUpcoming
	snaps, err := r.store.GetCurrent(ctx, domain.SnapshotFilter{
		After:  &after,
		Before: &before,
		Status: &upcoming,
	})
	if err != nil {
		return fmt.Errorf("pipeline: reconcile query: %w", err)
	}

	r.logger.Info("reconciling window",
		slog.Int("matches", len(snaps)),
		slog.Duration("window", r.window))

	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.reconcileMatch(ctx, snap); err != nil {
			r.logger.Error("match reconciliation failed",
				slog.Int64("match_id", snap.ID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (r *Reconciler) reconcileMatch(ctx context.Context, snap domain.Snapshot) error {
	v, err := r.engine.Valuate(snap.Pair())
	if err != nil {
		return fmt.Errorf("valuate: %w", err)
	}

	var pos *domain.Position
	existing, err := r.positions.Get(ctx, snap.ID)
	switch {
	case err == nil:
		pos = &existing
	case errors.Is(err, domain.ErrNotFound):
	default:
		return fmt.Errorf("load position: %w", err)
	}

	action := policy.Decide(v, pos, r.policy)

	switch action.Kind {
	case domain.ActionNoOp:
		return nil

	case domain.ActionOpen:
		if err := r.wagers.Place(ctx, snap.ID, action.Side, action.Amount); err != nil {
			return err
		}
		if err := r.positions.Create(ctx, domain.Position{
			MatchID:    snap.ID,
			Side:       action.Side,
			Amount:     action.Amount,
			TimePlaced: time.Now(),
		}); err != nil {
			return fmt.Errorf("record position: %w", err)
		}
		r.notify(ctx, notify.EventWagerPlaced, "Wager placed", v, action)

	case domain.ActionClose:
		if err := r.wagers.Cancel(ctx, snap.ID); err != nil {
			return err
		}
		if err := r.positions.Delete(ctx, snap.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("drop position: %w", err)
		}
		r.notify(ctx, notify.EventWagerCancelled, "Wager cancelled", v, action)

	case domain.ActionReplace:
		if err := r.wagers.Cancel(ctx, snap.ID); err != nil {
			return err
		}
		if err := r.positions.Delete(ctx, snap.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("drop position: %w", err)
		}
		if err := r.wagers.Place(ctx, snap.ID, action.Side, action.Amount); err != nil {
			return err
		}
		if err := r.positions.Create(ctx, domain.Position{
			MatchID:    snap.ID,
			Side:       action.Side,
			Amount:     action.Amount,
			TimePlaced: time.Now(),
		}); err != nil {
			return fmt.Errorf("record position: %w", err)
		}
		r.notify(ctx, notify.EventWagerReplaced, "Wager replaced", v, action)
	}

	r.logger.Info("action executed",
		slog.Int64("match_id", snap.ID),
		slog.String("action", string(action.Kind)),
		slog.Int("side", action.Side),
		slog.Float64("amount", action.Amount))
	return nil
}

func (r *Reconciler) notify(ctx context.Context, event, title string, v domain.Valuation, action domain.Action) {
	if r.notifier == nil {
		return
	}
	body := notify.FormatAction(v, action) + "\n\n" + notify.FormatValuation(v)
	if err := r.notifier.Notify(ctx, event, title, body); err != nil {
		r.logger.Warn("notification failed", slog.String("error", err.Error()))
	}
}
