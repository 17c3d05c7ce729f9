package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/policy"
	"github.com/alanyoungcy/loungebot/internal/store/memory"
	"github.com/alanyoungcy/loungebot/internal/valuation"
)

type wagerCall struct {
	op      string
	matchID int64
	side    int
	amount  float64
}

type fakeWagers struct {
	calls []wagerCall
}

func (f *fakeWagers) Place(_ context.Context, matchID int64, side int, amount float64) error {
	f.calls = append(f.calls, wagerCall{"place", matchID, side, amount})
	return nil
}

func (f *fakeWagers) Cancel(_ context.Context, matchID int64) error {
	f.calls = append(f.calls, wagerCall{"cancel", matchID, 0, 0})
	return nil
}

// highEVSnapshot starts in 30 seconds with a big edge on side 1.
func highEVSnapshot(id int64) domain.Snapshot {
	start := time.Now().Unix() + 30
	return domain.Snapshot{
		ID:            id,
		PoolStartTime: start,
		MLStartTime:   start,
		Status:        domain.StatusUpcoming,
		Team1:         "Team Spirit",
		Team2:         "FURIA Esports",
		PoolValue1:    1200,
		PoolValue2:    300,
		Moneyline1:    -175,
		Moneyline2:    135,
	}
}

// flatSnapshot has no edge anywhere.
func flatSnapshot(id int64) domain.Snapshot {
	start := time.Now().Unix() + 30
	return domain.Snapshot{
		ID:            id,
		PoolStartTime: start,
		MLStartTime:   start,
		Status:        domain.StatusUpcoming,
		Team1:         "Cloud9",
		Team2:         "G2",
		PoolValue1:    1000,
		PoolValue2:    1000,
		Moneyline1:    -110,
		Moneyline2:    -110,
	}
}

func newTestReconciler(t *testing.T, store *memory.SnapshotStore, positions *memory.PositionStore, wagers *fakeWagers) *Reconciler {
	t.Helper()
	return NewReconciler(
		store, positions, wagers,
		valuation.NewEngine(nil, valuation.ModeLargestBucket),
		policy.Config{MinEV: 0.2, MinPool: 10, Stake: 1},
		time.Minute,
		nil,
		discardLogger(),
	)
}

func TestReconcilerOpensOnHighEV(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	positions := memory.NewPositionStore()
	wagers := &fakeWagers{}

	_, err := store.Insert(ctx, highEVSnapshot(1))
	require.NoError(t, err)

	rec := newTestReconciler(t, store, positions, wagers)
	require.NoError(t, rec.Run(ctx))

	require.Len(t, wagers.calls, 1)
	assert.Equal(t, "place", wagers.calls[0].op)
	assert.Equal(t, 1, wagers.calls[0].side, "money piles on side 1, edge is on side 2")
	assert.Equal(t, 1.0, wagers.calls[0].amount)

	pos, err := positions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Side)
}

func TestReconcilerNoOpWithoutEdge(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	positions := memory.NewPositionStore()
	wagers := &fakeWagers{}

	_, err := store.Insert(ctx, flatSnapshot(2))
	require.NoError(t, err)

	rec := newTestReconciler(t, store, positions, wagers)
	require.NoError(t, rec.Run(ctx))
	assert.Empty(t, wagers.calls)
}

func TestReconcilerClosesWhenEdgeGone(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	positions := memory.NewPositionStore()
	wagers := &fakeWagers{}

	_, err := store.Insert(ctx, flatSnapshot(3))
	require.NoError(t, err)
	require.NoError(t, positions.Create(ctx, domain.Position{
		MatchID: 3, Side: 1, Amount: 1, TimePlaced: time.Now(),
	}))

	rec := newTestReconciler(t, store, positions, wagers)
	require.NoError(t, rec.Run(ctx))

	require.Len(t, wagers.calls, 1)
	assert.Equal(t, "cancel", wagers.calls[0].op)

	_, err = positions.Get(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcilerReplacesWrongSide(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	positions := memory.NewPositionStore()
	wagers := &fakeWagers{}

	_, err := store.Insert(ctx, highEVSnapshot(4))
	require.NoError(t, err)
	require.NoError(t, positions.Create(ctx, domain.Position{
		MatchID: 4, Side: 0, Amount: 1, TimePlaced: time.Now(),
	}))

	rec := newTestReconciler(t, store, positions, wagers)
	require.NoError(t, rec.Run(ctx))

	require.Len(t, wagers.calls, 2)
	assert.Equal(t, "cancel", wagers.calls[0].op)
	assert.Equal(t, "place", wagers.calls[1].op)
	assert.Equal(t, 1, wagers.calls[1].side)

	pos, err := positions.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Side)
}

func TestReconcilerIgnoresMatchesOutsideWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	positions := memory.NewPositionStore()
	wagers := &fakeWagers{}

	far := highEVSnapshot(5)
	far.PoolStartTime = time.Now().Add(2 * time.Hour).Unix()
	_, err := store.Insert(ctx, far)
	require.NoError(t, err)

	rec := newTestReconciler(t, store, positions, wagers)
	require.NoError(t, rec.Run(ctx))
	assert.Empty(t, wagers.calls)
}
