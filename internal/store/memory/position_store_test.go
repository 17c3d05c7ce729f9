package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

func TestPositionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewPositionStore()

	pos := domain.Position{
		MatchID:    271828,
		Side:       1,
		Amount:     25,
		TimePlaced: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Create(ctx, pos))

	err := store.Create(ctx, pos)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := store.Get(ctx, pos.MatchID)
	require.NoError(t, err)
	assert.Equal(t, pos, got)

	require.NoError(t, store.Delete(ctx, pos.MatchID))
	_, err = store.Get(ctx, pos.MatchID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Delete(ctx, pos.MatchID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPositionListOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewPositionStore()

	t0 := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Create(ctx, domain.Position{MatchID: 2, Side: 0, Amount: 10, TimePlaced: t0.Add(time.Hour)}))
	require.NoError(t, store.Create(ctx, domain.Position{MatchID: 1, Side: 1, Amount: 20, TimePlaced: t0}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].MatchID)
	assert.Equal(t, int64(2), list[1].MatchID)
}
