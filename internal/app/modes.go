package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/loungebot/internal/bet"
	"github.com/alanyoungcy/loungebot/internal/correlate"
	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/feed"
	"github.com/alanyoungcy/loungebot/internal/pipeline"
	"github.com/alanyoungcy/loungebot/internal/policy"
	"github.com/alanyoungcy/loungebot/internal/server"
	"github.com/alanyoungcy/loungebot/internal/server/handler"
	"github.com/alanyoungcy/loungebot/internal/server/ws"
	"github.com/alanyoungcy/loungebot/internal/session"
	"github.com/alanyoungcy/loungebot/internal/valuation"
)

// CycleMode runs a single observation pass and exits. Useful for cron-driven
// deployments and for smoke-testing feed connectivity.
func (a *App) CycleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting cycle mode")

	res, err := a.buildCycle(deps).Run(ctx)
	if err != nil {
		return fmt.Errorf("app: cycle: %w", err)
	}

	a.logger.InfoContext(ctx, "cycle complete",
		slog.String("run_id", res.RunID),
		slog.Int("paired", res.Paired),
		slog.Int("inserted", res.Inserted),
		slog.Int("updated", res.Updated),
		slog.Int("signals", res.Signals),
	)
	return nil
}

// WatchMode runs observation passes on the configured interval, plus the
// archive export loop and the HTTP server when enabled. No wagers are placed.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startWatchLoop(ctx, g, deps)
	a.startExportLoop(ctx, g, deps)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return waitGroup(ctx, g)
}

// ReconcileMode runs a single reconciliation pass and exits. It requires
// auto-wagering to be configured since it places and cancels real wagers.
func (a *App) ReconcileMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting reconcile mode")

	rec, err := a.buildReconciler(deps)
	if err != nil {
		return err
	}
	if err := rec.Run(ctx); err != nil {
		return fmt.Errorf("app: reconcile: %w", err)
	}
	return nil
}

// ServeMode runs only the query API: the HTTP server and the WebSocket hub.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)

	return waitGroup(ctx, g)
}

// FullMode starts all subsystems: the watch loop, the reconciliation loop
// (when auto-wagering is enabled), the archive export loop, and the HTTP
// server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startWatchLoop(ctx, g, deps)
	a.startExportLoop(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)

	if a.cfg.Policy.AutoWager {
		rec, err := a.buildReconciler(deps)
		if err != nil {
			return err
		}
		a.startReconcileLoop(ctx, g, rec)
	} else {
		a.logger.InfoContext(ctx, "auto_wager disabled, running observation only")
	}

	return waitGroup(ctx, g)
}

// waitGroup blocks on the errgroup and suppresses the error when the outer
// context was cancelled, so a clean shutdown exits with status 0.
func waitGroup(ctx context.Context, g *errgroup.Group) error {
	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// newEngine builds the valuation engine from configuration.
func (a *App) newEngine() *valuation.Engine {
	rates := a.cfg.Valuation.Rates
	if len(rates) == 0 {
		rates = nil
	}
	return valuation.NewEngine(rates, valuation.CurrencyMode(a.cfg.Valuation.CurrencyMode))
}

// buildCycle assembles the observation cycle from configuration: both feed
// clients, the correlator, the valuation engine, and the optional Redis
// fan-outs.
func (a *App) buildCycle(deps *Dependencies) *pipeline.Cycle {
	moneyline := feed.NewMoneylineClient(
		a.cfg.Feeds.MoneylineBaseURL,
		a.cfg.Feeds.MoneylinePath,
		a.logger,
	)

	var statuses []domain.MatchStatus
	for _, s := range a.cfg.Feeds.PoolStatuses {
		statuses = append(statuses, domain.MatchStatus(s))
	}
	pool := feed.NewPoolClient(a.cfg.Feeds.PoolBaseURL, statuses, a.logger)

	return pipeline.NewCycle(
		moneyline,
		pool,
		correlate.New(nil, a.logger),
		a.newEngine(),
		deps.SnapshotStore,
		deps.SnapshotCache,
		deps.SignalBus,
		pipeline.SignalThresholds{
			MinEV:   a.cfg.Cycle.SignalMinEV,
			MinPool: a.cfg.Cycle.SignalMinPool,
		},
		a.logger,
	)
}

// buildReconciler assembles the wager reconciler, including the browser-based
// session manager and the pool site wager client.
func (a *App) buildReconciler(deps *Dependencies) (*pipeline.Reconciler, error) {
	if !a.cfg.Policy.AutoWager {
		return nil, fmt.Errorf("app: reconciliation requires policy.auto_wager")
	}

	auth := session.NewChromeAuthenticator(session.ChromeConfig{
		SteamBaseURL:     a.cfg.Session.SteamBaseURL,
		LoginRedirectURL: a.cfg.Session.LoginRedirectURL,
		LoginURL:         a.cfg.Session.LoginURL,
		SiteURL:          a.cfg.Session.SiteURL,
		SteamCookiesPath: a.cfg.Session.SteamCookiesPath,
		Headless:         a.cfg.Session.Headless,
		Timeout:          a.cfg.Session.Timeout.Duration,
	}, a.logger)

	sessions := session.NewManager(
		auth,
		a.cfg.Session.MaxAttempts,
		a.cfg.Session.Backoff.Duration,
		a.cfg.Session.SessionSavePath,
		a.logger,
	)

	wagers := bet.New(a.cfg.Session.SiteURL, sessions, a.logger)

	return pipeline.NewReconciler(
		deps.SnapshotStore,
		deps.PositionStore,
		wagers,
		a.newEngine(),
		policy.Config{
			MinEV:   a.cfg.Policy.MinEV,
			MinPool: a.cfg.Policy.MinPool,
			Stake:   a.cfg.Policy.Stake,
		},
		a.cfg.Policy.Window.Duration,
		deps.Notifier,
		a.logger,
	), nil
}

// startWatchLoop adds the periodic observation loop to the errgroup.
func (a *App) startWatchLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	runner := pipeline.NewRunner(
		a.buildCycle(deps),
		a.cfg.Cycle.Interval.Duration,
		deps.LockManager,
		deps.RateLimiter,
		a.cfg.Feeds.RequestsPerMinute,
		a.logger,
	)
	g.Go(func() error {
		return runner.Run(ctx)
	})
}

// startReconcileLoop adds the periodic reconciliation loop to the errgroup.
// Per-pass failures are logged and the loop continues.
func (a *App) startReconcileLoop(ctx context.Context, g *errgroup.Group, rec *pipeline.Reconciler) {
	interval := a.cfg.Cycle.ReconcileInterval.Duration
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	g.Go(func() error {
		a.logger.InfoContext(ctx, "reconcile loop starting", slog.Duration("interval", interval))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := rec.Run(ctx); err != nil && ctx.Err() == nil {
					a.logger.ErrorContext(ctx, "reconcile pass failed",
						slog.String("error", err.Error()),
					)
				}
			}
		}
	})
}

// startExportLoop adds the aged-archive export loop to the errgroup when S3
// is wired.
func (a *App) startExportLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Exporter == nil {
		return
	}

	interval := a.cfg.S3.ExportInterval.Duration
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	maxAge := a.cfg.S3.MaxAge.Duration

	g.Go(func() error {
		return pipeline.RunExporter(ctx, deps.Exporter.Export, interval, maxAge, a.logger)
	})
}

// startHTTPServer adds the HTTP query API and, when Redis is wired, the
// WebSocket hub to the errgroup. The server is shut down gracefully when the
// context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(deps.SnapshotStore, a.logger),
		Matches:   handler.NewMatchHandler(deps.SnapshotStore, deps.SnapshotCache, a.newEngine(), a.logger),
		Positions: handler.NewPositionHandler(deps.PositionStore, a.logger),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		handlers.Signals = handler.NewSignalHandler(deps.SignalBus, pipeline.SignalStream, a.logger)
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  time.Second,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
