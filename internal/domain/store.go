package domain

import (
	"context"
	"time"
)

// SnapshotFilter narrows a GetCurrent query. Nil fields are ignored. Team
// matches either side of a match. At most conventional combinations are used
// by callers (time range, status, team, or id); the store applies all set
// fields conjunctively.
type SnapshotFilter struct {
	After  *int64 // pool start time, exclusive
	Before *int64 // pool start time, exclusive
	Status *MatchStatus
	Team   string
	ID     *int64
	Limit  int
}

// HistoryOpts bounds a history query. Stride > 1 requests even-stride
// subsampling of the result to cap its size for display; the newest entry is
// always included.
type HistoryOpts struct {
	After  *time.Time
	Before *time.Time
	Stride int
}

// SnapshotStore is the keyed, versioned persistence layer for correlated
// matches. Implementations must guarantee that an update archives the
// pre-update row in the same atomic unit, and that a uniqueness violation is
// reported as applied=false rather than an error.
type SnapshotStore interface {
	// Insert creates the current row for a new match. It returns
	// applied=false when a row with the same ID or the same uniqueness tuple
	// (pool start, moneyline start, team1, team2) already exists.
	Insert(ctx context.Context, snap Snapshot) (applied bool, err error)

	// Update atomically copies the existing current row into the archive and
	// then overwrites the row's mutable fields, bumping LastUpdated. It
	// returns applied=false when no current row exists for snap.ID or when
	// the overwrite would violate the uniqueness tuple.
	Update(ctx context.Context, snap Snapshot) (applied bool, err error)

	// GetCurrent returns current rows matching the filter, ordered by pool
	// start time ascending.
	GetCurrent(ctx context.Context, f SnapshotFilter) ([]Snapshot, error)

	// GetHistory returns the archived versions of a match (plus the current
	// row when it falls in range) ordered by LastUpdated ascending.
	GetHistory(ctx context.Context, id int64, opts HistoryOpts) ([]ArchiveEntry, error)

	// Count returns the number of current rows.
	Count(ctx context.Context) (int64, error)
}

// ArchiveExportStore is the narrow read/delete surface the cold-storage
// exporter needs. The Postgres snapshot store satisfies it.
type ArchiveExportStore interface {
	// ListArchivedBefore returns archive entries older than the cutoff.
	ListArchivedBefore(ctx context.Context, before time.Time) ([]ArchiveEntry, error)
	// DeleteArchivedBefore removes archive entries older than the cutoff and
	// returns how many were deleted. Called only after a verified export.
	DeleteArchivedBefore(ctx context.Context, before time.Time) (int64, error)
}

// PositionStore persists outstanding wagers, at most one per match.
type PositionStore interface {
	Create(ctx context.Context, pos Position) error
	Get(ctx context.Context, matchID int64) (Position, error)
	Delete(ctx context.Context, matchID int64) error
	List(ctx context.Context) ([]Position, error)
}
