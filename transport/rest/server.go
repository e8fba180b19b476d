package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type roomRegistry interface {
	ActiveRooms(ctx context.Context) ([]string, error)
	GetRoom(ctx context.Context, id string) (*entity.Room, error)
	Ping(ctx context.Context) error
}

// NewRouter mounts the socket endpoint, the health check, the read-only room
// index and, when staticDir is set, the web client.
func NewRouter(logger *slog.Logger, socket http.Handler, registry roomRegistry, staticDir string) http.Handler {
	router := mux.NewRouter()

	rooms := NewRoomHandlers(logger, registry)

	router.Handle("/ws", socket)
	router.HandleFunc("/ping", NewPingHandler(logger, registry).PingHandler).Methods(http.MethodGet)
	router.HandleFunc("/rooms", rooms.ListRooms).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{id}", rooms.GetRoom).Methods(http.MethodGet)

	if staticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}

	return router
}

// Start serves handler on port until ctx is done.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
