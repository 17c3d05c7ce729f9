package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// PositionStore persists open wagers, keyed by match id.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a PositionStore backed by the given client.
func NewPositionStore(client *Client) *PositionStore {
	return &PositionStore{pool: client.Pool()}
}

// Create stores a new open position. At most one position may exist per
// match; a second create for the same match returns ErrAlreadyExists.
func (s *PositionStore) Create(ctx context.Context, pos domain.Position) error {
	const query = `
		INSERT INTO positions (match_id, side, amount, time_placed)
		VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query, pos.MatchID, pos.Side, pos.Amount, pos.TimePlaced)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("postgres: position %d: %w", pos.MatchID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create position %d: %w", pos.MatchID, err)
	}
	return nil
}

// Get returns the open position for a match, or ErrNotFound.
func (s *PositionStore) Get(ctx context.Context, matchID int64) (domain.Position, error) {
	const query = `
		SELECT match_id, side, amount, time_placed
		FROM positions WHERE match_id = $1`

	var pos domain.Position
	err := s.pool.QueryRow(ctx, query, matchID).Scan(
		&pos.MatchID, &pos.Side, &pos.Amount, &pos.TimePlaced,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, fmt.Errorf("postgres: position %d: %w", matchID, domain.ErrNotFound)
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %d: %w", matchID, err)
	}
	return pos, nil
}

// Delete removes the open position for a match. Deleting a position that
// does not exist returns ErrNotFound.
func (s *PositionStore) Delete(ctx context.Context, matchID int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM positions WHERE match_id = $1", matchID)
	if err != nil {
		return fmt.Errorf("postgres: delete position %d: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: position %d: %w", matchID, domain.ErrNotFound)
	}
	return nil
}

// List returns all open positions ordered by placement time.
func (s *PositionStore) List(ctx context.Context) ([]domain.Position, error) {
	const query = `
		SELECT match_id, side, amount, time_placed
		FROM positions ORDER BY time_placed ASC, match_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		var pos domain.Position
		if err := rows.Scan(&pos.MatchID, &pos.Side, &pos.Amount, &pos.TimePlaced); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		out = append(out, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate positions: %w", err)
	}
	return out, nil
}
