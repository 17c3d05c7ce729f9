package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Counter is the narrow store surface the health check needs.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	store  Counter // optional
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. store may be nil, in which case
// the response omits the match count.
func NewHealthHandler(store Counter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logHandler(logger, "health")}
}

// HealthCheck responds with a JSON status indicating the server is alive and,
// when the store is reachable, the number of tracked matches.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.store != nil {
		count, err := h.store.Count(r.Context())
		if err != nil {
			h.logger.WarnContext(r.Context(), "store count failed",
				slog.String("error", err.Error()),
			)
			body["status"] = "degraded"
		} else {
			body["matches"] = count
		}
	}

	writeJSON(w, http.StatusOK, body)
}
