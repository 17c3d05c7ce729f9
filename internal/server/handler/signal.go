package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

const defaultSignalCount = 100

// SignalHandler serves recent high-EV signals from the durable Redis stream,
// so clients that are not connected over WebSocket can catch up.
type SignalHandler struct {
	bus    domain.SignalBus
	stream string
	logger *slog.Logger
}

// NewSignalHandler creates a SignalHandler reading from the given stream.
func NewSignalHandler(bus domain.SignalBus, stream string, logger *slog.Logger) *SignalHandler {
	return &SignalHandler{
		bus:    bus,
		stream: stream,
		logger: logHandler(logger, "signal"),
	}
}

// signalEntry is one stream entry: the stream id (usable as the next last_id
// cursor) and the signal payload as published.
type signalEntry struct {
	ID     string          `json:"id"`
	Signal json.RawMessage `json:"signal"`
}

// listSignalsResponse wraps the list signals response.
type listSignalsResponse struct {
	Signals []signalEntry `json:"signals"`
}

// ListSignals returns stream entries published after last_id ("0" from the
// beginning), up to count entries.
// GET /api/signals?last_id=&count=
func (h *SignalHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	lastID := r.URL.Query().Get("last_id")
	if lastID == "" {
		lastID = "0"
	}

	count := defaultSignalCount
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid count parameter")
			return
		}
		count = n
	}

	msgs, err := h.bus.StreamRead(r.Context(), h.stream, lastID, count)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stream read failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read signals")
		return
	}

	entries := make([]signalEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, signalEntry{ID: m.ID, Signal: m.Payload})
	}

	writeJSON(w, http.StatusOK, listSignalsResponse{Signals: entries})
}
