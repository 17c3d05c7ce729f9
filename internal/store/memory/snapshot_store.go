// Package memory provides in-memory implementations of the domain store
// interfaces for tests and single-process experiments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

type matchKey struct {
	poolStart int64
	mlStart   int64
	team1     string
	team2     string
}

func keyOf(snap domain.Snapshot) matchKey {
	return matchKey{snap.PoolStartTime, snap.MLStartTime, snap.Team1, snap.Team2}
}

// SnapshotStore is a mutex-guarded map-backed SnapshotStore.
type SnapshotStore struct {
	mu      sync.RWMutex
	current map[int64]domain.Snapshot
	keys    map[matchKey]int64
	archive map[int64][]domain.ArchiveEntry
	now     func() time.Time
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		current: make(map[int64]domain.Snapshot),
		keys:    make(map[matchKey]int64),
		archive: make(map[int64][]domain.ArchiveEntry),
		now:     time.Now,
	}
}

// SetClock overrides the store's clock. Tests use it to make LastUpdated
// deterministic.
func (s *SnapshotStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *SnapshotStore) Insert(_ context.Context, snap domain.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current[snap.ID]; ok {
		return false, nil
	}
	key := keyOf(snap)
	if _, ok := s.keys[key]; ok {
		return false, nil
	}

	snap.LastUpdated = s.now()
	s.current[snap.ID] = snap
	s.keys[key] = snap.ID
	return true, nil
}

func (s *SnapshotStore) Update(_ context.Context, snap domain.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.current[snap.ID]
	if !ok {
		return false, nil
	}

	s.archive[snap.ID] = append(s.archive[snap.ID], domain.ArchiveEntry{Snapshot: prev})

	next := prev
	next.Status = snap.Status
	next.PoolValue1 = snap.PoolValue1
	next.PoolValue2 = snap.PoolValue2
	next.Moneyline1 = snap.Moneyline1
	next.Moneyline2 = snap.Moneyline2
	next.LastUpdated = s.now()
	if !next.LastUpdated.After(prev.LastUpdated) {
		next.LastUpdated = prev.LastUpdated.Add(time.Microsecond)
	}
	s.current[snap.ID] = next
	return true, nil
}

func (s *SnapshotStore) GetCurrent(_ context.Context, f domain.SnapshotFilter) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Snapshot
	for _, snap := range s.current {
		if f.ID != nil && snap.ID != *f.ID {
			continue
		}
		if f.After != nil && snap.PoolStartTime <= *f.After {
			continue
		}
		if f.Before != nil && snap.PoolStartTime >= *f.Before {
			continue
		}
		if f.Status != nil && snap.Status != *f.Status {
			continue
		}
		if f.Team != "" && snap.Team1 != f.Team && snap.Team2 != f.Team {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PoolStartTime != out[j].PoolStartTime {
			return out[i].PoolStartTime < out[j].PoolStartTime
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *SnapshotStore) GetHistory(_ context.Context, id int64, opts domain.HistoryOpts) ([]domain.ArchiveEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.ArchiveEntry
	entries = append(entries, s.archive[id]...)
	if cur, ok := s.current[id]; ok {
		entries = append(entries, domain.ArchiveEntry{Snapshot: cur})
	}

	var filtered []domain.ArchiveEntry
	for _, e := range entries {
		if opts.After != nil && e.LastUpdated.Before(*opts.After) {
			continue
		}
		if opts.Before != nil && e.LastUpdated.After(*opts.Before) {
			continue
		}
		filtered = append(filtered, e)
	}
	if len(filtered) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LastUpdated.Before(filtered[j].LastUpdated)
	})

	if opts.Stride > 1 && len(filtered) > 2 {
		out := make([]domain.ArchiveEntry, 0, len(filtered)/opts.Stride+2)
		for i := 0; i < len(filtered); i += opts.Stride {
			out = append(out, filtered[i])
		}
		if (len(filtered)-1)%opts.Stride != 0 {
			out = append(out, filtered[len(filtered)-1])
		}
		return out, nil
	}
	return filtered, nil
}

func (s *SnapshotStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.current)), nil
}

func (s *SnapshotStore) ListArchivedBefore(_ context.Context, before time.Time) ([]domain.ArchiveEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ArchiveEntry
	for _, entries := range s.archive {
		for _, e := range entries {
			if e.LastUpdated.Before(before) {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].LastUpdated.Before(out[j].LastUpdated)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *SnapshotStore) DeleteArchivedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, entries := range s.archive {
		kept := entries[:0]
		for _, e := range entries {
			if e.LastUpdated.Before(before) {
				deleted++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(s.archive, id)
		} else {
			s.archive[id] = kept
		}
	}
	return deleted, nil
}
