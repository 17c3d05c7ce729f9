package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// defaultMatchLimit caps the list endpoint when the client does not ask for a
// specific page size.
const (
	defaultMatchLimit = 50
	maxMatchLimit     = 500
)

// Valuer computes the derived view of a correlated match. The valuation
// engine satisfies it.
type Valuer interface {
	Valuate(pair domain.MatchPair) (domain.Valuation, error)
}

// MatchHandler serves the match query endpoints. Reads go to the snapshot
// store; single-match lookups try the cache first. Derived values (odds,
// multipliers, EV) are recomputed on every request rather than stored.
type MatchHandler struct {
	store  domain.SnapshotStore
	cache  domain.SnapshotCache // optional
	valuer Valuer
	logger *slog.Logger
}

// NewMatchHandler creates a MatchHandler. cache may be nil.
func NewMatchHandler(store domain.SnapshotStore, cache domain.SnapshotCache, valuer Valuer, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		store:  store,
		cache:  cache,
		valuer: valuer,
		logger: logHandler(logger, "match"),
	}
}

// matchView is one match in an API response: the persisted snapshot plus its
// freshly computed valuation. Valuation is omitted when the pool is empty or
// the odds are malformed.
type matchView struct {
	domain.Snapshot
	Valuation *domain.Valuation `json:"valuation,omitempty"`
}

// listMatchesResponse wraps the list matches response.
type listMatchesResponse struct {
	Matches []matchView `json:"matches"`
}

// ListMatches returns current matches filtered by the query parameters.
// GET /api/matches?after=&before=&status=&team=&id=&limit=
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMatchFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snaps, err := h.store.GetCurrent(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list matches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	views := make([]matchView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, h.view(snap))
	}

	writeJSON(w, http.StatusOK, listMatchesResponse{Matches: views})
}

// GetMatch returns a single current match by its pool feed id.
// GET /api/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	if h.cache != nil {
		if snap, err := h.cache.Get(r.Context(), id); err == nil {
			writeJSON(w, http.StatusOK, h.view(snap))
			return
		}
	}

	snaps, err := h.store.GetCurrent(r.Context(), domain.SnapshotFilter{ID: &id, Limit: 1})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get match failed",
			slog.Int64("match_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}
	if len(snaps) == 0 {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}

	snap := snaps[0]
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), snap); err != nil {
			h.logger.WarnContext(r.Context(), "cache set failed",
				slog.Int64("match_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	writeJSON(w, http.StatusOK, h.view(snap))
}

// historyResponse wraps the match history response.
type historyResponse struct {
	MatchID int64                `json:"match_id"`
	History []domain.ArchiveEntry `json:"history"`
}

// GetHistory returns the archived versions of a match, oldest first, with the
// current row included when it falls in range.
// GET /api/matches/{id}/history?after=&before=&stride=
func (h *MatchHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	var opts domain.HistoryOpts
	if opts.After, err = queryTime(r, "after"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid after parameter")
		return
	}
	if opts.Before, err = queryTime(r, "before"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid before parameter")
		return
	}
	if v := r.URL.Query().Get("stride"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid stride parameter")
			return
		}
		opts.Stride = n
	}

	entries, err := h.store.GetHistory(r.Context(), id, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get history failed",
			slog.Int64("match_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get history")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{MatchID: id, History: entries})
}

// view pairs a snapshot with its recomputed valuation. Valuation errors are
// not fatal for a read: the snapshot is still returned.
func (h *MatchHandler) view(snap domain.Snapshot) matchView {
	v := matchView{Snapshot: snap}
	val, err := h.valuer.Valuate(snap.Pair())
	if err == nil {
		v.Valuation = &val
	}
	return v
}

// parseMatchFilter builds a SnapshotFilter from list query parameters.
func parseMatchFilter(r *http.Request) (domain.SnapshotFilter, error) {
	var (
		f   domain.SnapshotFilter
		err error
	)

	if f.After, err = queryInt64(r, "after"); err != nil {
		return f, errors.New("invalid after parameter")
	}
	if f.Before, err = queryInt64(r, "before"); err != nil {
		return f, errors.New("invalid before parameter")
	}
	if f.ID, err = queryInt64(r, "id"); err != nil {
		return f, errors.New("invalid id parameter")
	}
	f.Team = r.URL.Query().Get("team")

	if v := r.URL.Query().Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < int(domain.StatusUpcoming) || n > int(domain.StatusClosed) {
			return f, errors.New("invalid status parameter")
		}
		status := domain.MatchStatus(n)
		f.Status = &status
	}

	f.Limit = defaultMatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, errors.New("invalid limit parameter")
		}
		f.Limit = min(n, maxMatchLimit)
	}

	return f, nil
}
