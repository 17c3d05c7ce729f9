package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/store/memory"
)

func newPositionMux(t *testing.T, store *memory.PositionStore) *http.ServeMux {
	t.Helper()

	h := NewPositionHandler(store, slog.New(slog.DiscardHandler))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/positions", h.ListPositions)
	mux.HandleFunc("GET /api/positions/{id}", h.GetPosition)
	return mux
}

func TestListPositions(t *testing.T) {
	store := memory.NewPositionStore()
	require.NoError(t, store.Create(context.Background(), domain.Position{
		MatchID: 1, Side: 0, Amount: 5, TimePlaced: time.Unix(100, 0).UTC(),
	}))
	require.NoError(t, store.Create(context.Background(), domain.Position{
		MatchID: 2, Side: 1, Amount: 3, TimePlaced: time.Unix(200, 0).UTC(),
	}))
	mux := newPositionMux(t, store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/positions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Positions []domain.Position `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Positions, 2)
	assert.Equal(t, int64(1), resp.Positions[0].MatchID)
}

func TestListPositions_Empty(t *testing.T) {
	mux := newPositionMux(t, memory.NewPositionStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/positions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"positions":[]}`, rec.Body.String())
}

func TestGetPosition(t *testing.T) {
	store := memory.NewPositionStore()
	require.NoError(t, store.Create(context.Background(), domain.Position{
		MatchID: 9, Side: 1, Amount: 2.5, TimePlaced: time.Unix(100, 0).UTC(),
	}))
	mux := newPositionMux(t, store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/positions/9", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var pos domain.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pos))
	assert.Equal(t, 1, pos.Side)
	assert.Equal(t, 2.5, pos.Amount)
}

func TestGetPosition_NotFound(t *testing.T) {
	mux := newPositionMux(t, memory.NewPositionStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/positions/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
