package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-relay/internal/ai"
	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/client"
	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-relay/internal/render"
	"github.com/rocketscienceinc/tictactoe-relay/internal/session"
)

const help = `commands: 1-9 play a cell | p pair | r reset | m single|multi | q quit`

// offline stands in for the coordinator when it cannot be reached.
type offline struct{}

func (offline) Send(context.Context, protocol.Message) error {
	return apperror.ErrPeerUnavailable
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := config.MustLoadPlayer()
	logger := initLogger(conf.LogLevel)

	mode, err := session.ParseMode(conf.Mode)
	if err != nil {
		panic(fmt.Errorf("invalid player mode: %w", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = run(ctx, logger, conf, mode, os.Stdin, os.Stdout); err != nil {
		panic(fmt.Errorf("player run failed: %w", err))
	}
}

func run(ctx context.Context, logger *slog.Logger, conf *config.Player, mode session.Mode, in io.Reader, out io.Writer) error {
	log := logger.With("component", "player")

	renderer := render.NewTerminal(out)
	opts := session.Options{
		Mode:           mode,
		PairingTimeout: conf.PairingTimeout,
		AIDelay:        conf.AIDelay,
	}

	var transport session.Transport = offline{}

	conn, err := client.Dial(ctx, logger, conf.ServerURL)
	if err != nil {
		log.Warn("coordinator unreachable, multiplayer disabled", "error", err)
		fmt.Fprintln(out, "coordinator unreachable, single player only")
	} else {
		transport = conn
		defer func() {
			_ = conn.Close()
		}()
	}

	controller := session.NewController(logger, renderer, ai.NewRandomPlayer(), transport, opts)

	if conn != nil {
		go func() {
			if listenErr := conn.Listen(ctx, controller); listenErr != nil {
				log.Warn("connection lost", "error", listenErr)
				controller.Handle(protocol.OpponentDisconnected{})
			}
		}()
	}

	fmt.Fprintln(out, help)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := execute(ctx, controller, out, line); quit {
				return nil
			}
		}
	}
}

// execute applies one input line and reports whether the player quit.
func execute(ctx context.Context, controller *session.Controller, out io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "q":
		return true
	case "p":
		if !controller.RequestPairing(ctx) {
			fmt.Fprintln(out, "pairing is only available in multi mode after a reset")
		}
	case "r":
		controller.Reset()
	case "m":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: m single|multi")
			return false
		}
		mode, err := session.ParseMode(fields[1])
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		_ = controller.SetMode(mode)
	default:
		cell, err := strconv.Atoi(fields[0])
		if err != nil {
			fmt.Fprintln(out, help)
			return false
		}
		controller.LocalMove(ctx, cell-1)
	}

	return false
}

func initLogger(logLevel string) *slog.Logger {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
