package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/loungebot/internal/correlate"
	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/feed"
	"github.com/alanyoungcy/loungebot/internal/store/memory"
	"github.com/alanyoungcy/loungebot/internal/valuation"
)

type staticMoneylineFeed struct {
	quotes []domain.MoneylineQuote
	err    error
}

func (f staticMoneylineFeed) Fetch(context.Context) ([]domain.MoneylineQuote, error) {
	return f.quotes, f.err
}

type staticPoolFeed struct {
	quotes []domain.PoolQuote
	err    error
}

func (f staticPoolFeed) Fetch(context.Context) ([]domain.PoolQuote, error) {
	return f.quotes, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testCycle(ml MoneylineFeed, pool PoolFeed, store domain.SnapshotStore) *Cycle {
	logger := discardLogger()
	return NewCycle(
		ml, pool,
		correlate.New(nil, logger),
		valuation.NewEngine(nil, valuation.ModeLargestBucket),
		store, nil, nil,
		SignalThresholds{MinEV: 0.2, MinPool: 10},
		logger,
	)
}

func mlQuote() domain.MoneylineQuote {
	return domain.MoneylineQuote{
		StartTime: 1700000300,
		Team1:     "Team Spirit",
		Team2:     "FURIA Esports",
		Line1:     -175,
		Line2:     135,
	}
}

func poolQuote() domain.PoolQuote {
	return domain.PoolQuote{
		ID:        271828,
		StartTime: 1700000000,
		Status:    domain.StatusUpcoming,
		Team1:     "Team Spirit",
		Team2:     "FURIA Esports",
		Stakes: map[string]domain.StakeTotals{
			"USD": {Side1: 1000, Side2: 1200},
		},
	}
}

func TestCycleInsertsNewMatch(t *testing.T) {
	store := memory.NewSnapshotStore()
	cycle := testCycle(
		staticMoneylineFeed{quotes: []domain.MoneylineQuote{mlQuote()}},
		staticPoolFeed{quotes: []domain.PoolQuote{poolQuote()}},
		store,
	)

	res, err := cycle.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Paired)
	assert.Equal(t, 1, res.Inserted)
	assert.Zero(t, res.Updated)
	require.Len(t, res.Valuations, 1)
	assert.InDelta(t, 0.318, res.Valuations[0].EV[0], 0.001)

	snaps, err := store.GetCurrent(context.Background(), domain.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(271828), snaps[0].ID)
	assert.Equal(t, 1000.0, snaps[0].PoolValue1)
	assert.Equal(t, -175.0, snaps[0].Moneyline1)
}

func TestCycleUpdatesExistingMatch(t *testing.T) {
	store := memory.NewSnapshotStore()
	ml := staticMoneylineFeed{quotes: []domain.MoneylineQuote{mlQuote()}}

	cycle := testCycle(ml, staticPoolFeed{quotes: []domain.PoolQuote{poolQuote()}}, store)
	_, err := cycle.Run(context.Background())
	require.NoError(t, err)

	// Second observation of the same match with grown pools.
	grown := poolQuote()
	grown.Stakes = map[string]domain.StakeTotals{
		"USD": {Side1: 1500, Side2: 1300},
	}
	cycle = testCycle(ml, staticPoolFeed{quotes: []domain.PoolQuote{grown}}, store)
	res, err := cycle.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, 1, res.Updated)

	history, err := store.GetHistory(context.Background(), 271828, domain.HistoryOpts{})
	require.NoError(t, err)
	require.Len(t, history, 2, "update must archive the prior revision")
	assert.Equal(t, 1000.0, history[0].PoolValue1)
	assert.Equal(t, 1500.0, history[1].PoolValue1)
}

func TestCycleDegradesOnFeedFailure(t *testing.T) {
	store := memory.NewSnapshotStore()
	cycle := testCycle(
		staticMoneylineFeed{err: domain.ErrFeedUnavailable},
		staticPoolFeed{quotes: []domain.PoolQuote{poolQuote()}},
		store,
	)

	res, err := cycle.Run(context.Background())
	require.NoError(t, err, "an unavailable feed must not fail the cycle")
	assert.Zero(t, res.Moneyline)
	assert.Equal(t, 1, res.Pool)
	assert.Zero(t, res.Paired)
}

func TestCycleDegradesOnGarbledFeedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>site under maintenance</html>"))
	}))
	defer srv.Close()

	store := memory.NewSnapshotStore()
	cycle := testCycle(
		feed.NewMoneylineClient(srv.URL, "/coupon", discardLogger()),
		staticPoolFeed{quotes: []domain.PoolQuote{poolQuote()}},
		store,
	)

	res, err := cycle.Run(context.Background())
	require.NoError(t, err, "a 200 response with an unparseable body must not fail the cycle")
	assert.Zero(t, res.Moneyline)
	assert.Equal(t, 1, res.Pool)
}

func TestCycleReversedTeamsPair(t *testing.T) {
	store := memory.NewSnapshotStore()
	reversed := mlQuote()
	reversed.Team1, reversed.Team2 = reversed.Team2, reversed.Team1
	reversed.Line1, reversed.Line2 = reversed.Line2, reversed.Line1

	cycle := testCycle(
		staticMoneylineFeed{quotes: []domain.MoneylineQuote{reversed}},
		staticPoolFeed{quotes: []domain.PoolQuote{poolQuote()}},
		store,
	)

	res, err := cycle.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Paired)

	snaps, err := store.GetCurrent(context.Background(), domain.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	// Snapshot sides follow the pool feed's orientation.
	assert.Equal(t, "Team Spirit", snaps[0].Team1)
	assert.Equal(t, -175.0, snaps[0].Moneyline1)
}
