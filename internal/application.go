package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/coordinator"
	"github.com/rocketscienceinc/tictactoe-relay/internal/matchmaker"
	"github.com/rocketscienceinc/tictactoe-relay/internal/relay"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-relay/internal/service"
	"github.com/rocketscienceinc/tictactoe-relay/transport/rest"
	"github.com/rocketscienceinc/tictactoe-relay/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the coordinator until a signal arrives or a component fails.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	roomRepo := repository.NewRoomRepository(redisStorage.Connection, conf.RoomTTL)
	registry := service.NewRoomRegistry(logger, roomRepo)

	roomRelay := relay.New(logger)
	hub := coordinator.New(logger, matchmaker.New(logger, roomRelay), roomRelay, registry)

	errCh := make(chan error, 3)

	go func() {
		if regErr := registry.Run(ctx); regErr != nil {
			errCh <- fmt.Errorf("room registry error: %w", regErr)
		}
	}()

	go func() {
		if hubErr := hub.Run(ctx); hubErr != nil {
			errCh <- fmt.Errorf("hub error: %w", hubErr)
		}
	}()

	router := rest.NewRouter(logger, websocket.New(logger, hub).Handler(ctx), registry, conf.StaticDir)

	go func() {
		log.Info("Starting HTTP server", "port", conf.Port)
		if httpErr := rest.Start(ctx, conf.Port, router); httpErr != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
		}
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
