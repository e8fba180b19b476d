package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const pingTimeout = 2 * time.Second

type PingHandler interface {
	PingHandler(w http.ResponseWriter, r *http.Request)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type pingHandler struct {
	logger  *slog.Logger
	storage pinger
}

// NewPingHandler answers pong only while room storage is reachable.
func NewPingHandler(logger *slog.Logger, storage pinger) PingHandler {
	return &pingHandler{
		logger:  logger.With("component", "rest"),
		storage: storage,
	}
}

func (that *pingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := that.storage.Ping(ctx); err != nil {
		that.logger.Warn("storage is unavailable", "method", "PingHandler", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
