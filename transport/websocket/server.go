package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	disconnectWait = 5 * time.Second
)

type hub interface {
	Ready(ctx context.Context, client protocol.Peer) error
	Move(ctx context.Context, client protocol.Peer, move protocol.Move) error
	Disconnect(ctx context.Context, client protocol.Peer) error
}

type Server struct {
	logger   *slog.Logger
	hub      hub
	upgrader gorillaws.Upgrader

	handlers map[protocol.Event]func(ctx context.Context, conn *connection, msg protocol.Message) error
}

func New(logger *slog.Logger, hub hub) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[protocol.Event]func(context.Context, *connection, protocol.Message) error),
	}

	server.handlers[protocol.EventReady] = server.handleReady
	server.handlers[protocol.EventMove] = server.handleMove

	return server
}

// Handler upgrades requests to WebSocket connections that live until ctx is done
// or the client goes away.
func (that *Server) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})
}

func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(uuid.NewString(), ws, that.logger)
	log = log.With("client", conn.ID())
	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	go conn.writePump(ctx)

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Info("connection closed", "reason", err)
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, disconnectWait)
	defer cancel()

	if err = that.hub.Disconnect(disconnectCtx, conn); err != nil {
		log.Error("failed to report disconnect", "error", err)
	}

	conn.close()
}

// handleMessages reads until the socket fails; the returned error says why.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages", "client", conn.ID())

	conn.ws.SetReadLimit(maxMessageSize)
	if err := conn.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Warn("rejected malformed event", "error", err)
			that.reject(conn, err.Error())
			continue
		}

		handler, ok := that.handlers[msg.Event()]
		if !ok {
			log.Warn("rejected event not accepted from clients", "event", msg.Event())
			that.reject(conn, fmt.Sprintf("event %q is not accepted", msg.Event()))
			continue
		}

		if err = handler(ctx, conn, msg); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Error("error processing message", "event", msg.Event(), "error", err)
		}
	}
}

func (that *Server) reject(conn *connection, reason string) {
	if err := conn.Send(protocol.Error{Message: reason}); err != nil {
		that.logger.Warn("failed to send error event", "client", conn.ID(), "error", err)
	}
}
