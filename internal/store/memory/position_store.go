package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// PositionStore is a mutex-guarded map-backed PositionStore.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[int64]domain.Position
}

// NewPositionStore creates an empty in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[int64]domain.Position)}
}

func (s *PositionStore) Create(_ context.Context, pos domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[pos.MatchID]; ok {
		return domain.ErrAlreadyExists
	}
	s.positions[pos.MatchID] = pos
	return nil
}

func (s *PositionStore) Get(_ context.Context, matchID int64) (domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.positions[matchID]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return pos, nil
}

func (s *PositionStore) Delete(_ context.Context, matchID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[matchID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.positions, matchID)
	return nil
}

func (s *PositionStore) List(_ context.Context) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TimePlaced.Equal(out[j].TimePlaced) {
			return out[i].TimePlaced.Before(out[j].TimePlaced)
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out, nil
}
