package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

const snapshotColumns = `id, pool_start_time, ml_start_time, status, team1, team2,
	pool_value1, pool_value2, moneyline1, moneyline2, last_updated`

// SnapshotStore persists match snapshots and their archived revisions.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given client.
func NewSnapshotStore(client *Client) *SnapshotStore {
	return &SnapshotStore{pool: client.Pool()}
}

// Insert writes a new snapshot row. It reports applied=false without error
// when a row with the same id or the same match identity already exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap domain.Snapshot) (bool, error) {
	const query = `
		INSERT INTO snapshots (
			id, pool_start_time, ml_start_time, status, team1, team2,
			pool_value1, pool_value2, moneyline1, moneyline2, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		snap.ID, snap.PoolStartTime, snap.MLStartTime, snap.Status,
		snap.Team1, snap.Team2,
		snap.PoolValue1, snap.PoolValue2, snap.Moneyline1, snap.Moneyline2,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: insert snapshot %d: %w", snap.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update archives the current row for snap.ID and then overwrites its mutable
// fields. Both writes happen in one transaction so the archive never misses a
// superseded revision. It reports applied=false when no row with that id
// exists.
func (s *SnapshotStore) Update(ctx context.Context, snap domain.Snapshot) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("postgres: begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const archive = `
		INSERT INTO snapshot_archive (
			id, pool_start_time, ml_start_time, status, team1, team2,
			pool_value1, pool_value2, moneyline1, moneyline2, last_updated
		)
		SELECT id, pool_start_time, ml_start_time, status, team1, team2,
			pool_value1, pool_value2, moneyline1, moneyline2, last_updated
		FROM snapshots WHERE id = $1`

	tag, err := tx.Exec(ctx, archive, snap.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("postgres: archive snapshot %d: %w", snap.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	// The GREATEST bump keeps last_updated strictly increasing even when two
	// updates land within the same clock reading.
	const update = `
		UPDATE snapshots SET
			status = $2,
			pool_value1 = $3,
			pool_value2 = $4,
			moneyline1 = $5,
			moneyline2 = $6,
			last_updated = GREATEST(NOW(), last_updated + interval '1 microsecond')
		WHERE id = $1`

	if _, err := tx.Exec(ctx, update,
		snap.ID, snap.Status,
		snap.PoolValue1, snap.PoolValue2, snap.Moneyline1, snap.Moneyline2,
	); err != nil {
		return false, fmt.Errorf("postgres: update snapshot %d: %w", snap.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("postgres: commit update tx: %w", err)
	}
	return true, nil
}

// GetCurrent returns the latest snapshot of every match passing the filter,
// ordered by pool start time ascending.
func (s *SnapshotStore) GetCurrent(ctx context.Context, f domain.SnapshotFilter) ([]domain.Snapshot, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ID != nil {
		conds = append(conds, "id = "+arg(*f.ID))
	}
	if f.After != nil {
		conds = append(conds, "pool_start_time > "+arg(*f.After))
	}
	if f.Before != nil {
		conds = append(conds, "pool_start_time < "+arg(*f.Before))
	}
	if f.Status != nil {
		conds = append(conds, "status = "+arg(*f.Status))
	}
	if f.Team != "" {
		conds = append(conds, "(team1 = "+arg(f.Team)+" OR team2 = "+arg(f.Team)+")")
	}

	query := "SELECT " + snapshotColumns + " FROM snapshots"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY pool_start_time ASC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate snapshots: %w", err)
	}
	return out, nil
}

// GetHistory returns the full revision trail of one match: every archived
// revision plus the current row, ordered by last_updated ascending. Stride
// subsampling keeps every Nth entry and always the newest one.
func (s *SnapshotStore) GetHistory(ctx context.Context, id int64, opts domain.HistoryOpts) ([]domain.ArchiveEntry, error) {
	var (
		conds = []string{"id = $1"}
		args  = []any{id}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if opts.After != nil {
		conds = append(conds, "last_updated >= "+arg(*opts.After))
	}
	if opts.Before != nil {
		conds = append(conds, "last_updated <= "+arg(*opts.Before))
	}
	where := strings.Join(conds, " AND ")

	query := "SELECT " + snapshotColumns + " FROM snapshot_archive WHERE " + where +
		" UNION ALL SELECT " + snapshotColumns + " FROM snapshots WHERE " + where +
		" ORDER BY last_updated ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query history %d: %w", id, err)
	}
	defer rows.Close()

	var entries []domain.ArchiveEntry
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan history row: %w", err)
		}
		entries = append(entries, domain.ArchiveEntry{Snapshot: snap})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate history: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("postgres: history %d: %w", id, domain.ErrNotFound)
	}
	return subsample(entries, opts.Stride), nil
}

// Count returns the number of current snapshot rows.
func (s *SnapshotStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count snapshots: %w", err)
	}
	return n, nil
}

// ListArchivedBefore returns archived revisions older than the cutoff,
// ordered for deterministic export.
func (s *SnapshotStore) ListArchivedBefore(ctx context.Context, before time.Time) ([]domain.ArchiveEntry, error) {
	query := "SELECT " + snapshotColumns + ` FROM snapshot_archive
		WHERE last_updated < $1
		ORDER BY last_updated ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list archived: %w", err)
	}
	defer rows.Close()

	var entries []domain.ArchiveEntry
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan archived row: %w", err)
		}
		entries = append(entries, domain.ArchiveEntry{Snapshot: snap})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate archived: %w", err)
	}
	return entries, nil
}

// DeleteArchivedBefore removes archived revisions older than the cutoff and
// returns how many rows were deleted.
func (s *SnapshotStore) DeleteArchivedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM snapshot_archive WHERE last_updated < $1", before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete archived: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := row.Scan(
		&snap.ID, &snap.PoolStartTime, &snap.MLStartTime, &snap.Status,
		&snap.Team1, &snap.Team2,
		&snap.PoolValue1, &snap.PoolValue2, &snap.Moneyline1, &snap.Moneyline2,
		&snap.LastUpdated,
	)
	return snap, err
}

// subsample keeps every stride-th entry starting from the first, and always
// the final entry so the caller sees the latest revision.
func subsample(entries []domain.ArchiveEntry, stride int) []domain.ArchiveEntry {
	if stride <= 1 || len(entries) <= 2 {
		return entries
	}
	out := make([]domain.ArchiveEntry, 0, len(entries)/stride+2)
	for i := 0; i < len(entries); i += stride {
		out = append(out, entries[i])
	}
	if (len(entries)-1)%stride != 0 {
		out = append(out, entries[len(entries)-1])
	}
	return out
}
