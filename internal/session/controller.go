package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

const (
	DefaultPairingTimeout = 10 * time.Second
	DefaultAIDelay        = 300 * time.Millisecond
)

type State string

const (
	StateIdle               State = "idle"
	StateWaitingForOpponent State = "waitingForOpponent"
	StateInGame             State = "inGame"
	StateGameOver           State = "gameOver"
)

type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeSingle, ModeMulti:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownMode, value)
	}
}

type Renderer interface {
	Render(board entity.Board)
	HighlightWinningLine(line [3]int)
	ShowStatus(status Status)
}

type AI interface {
	ChooseMove(board entity.Board) (int, error)
}

type Transport interface {
	Send(ctx context.Context, msg protocol.Message) error
}

type Options struct {
	Mode           Mode
	PairingTimeout time.Duration
	AIDelay        time.Duration
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Mode   Mode
	State  State
	Board  entity.Board
	Symbol entity.Symbol
	MyTurn bool
	Room   string
}

// Controller is the client side of a game. Every method and timer callback
// runs under mu; sends happen after mu is released.
type Controller struct {
	logger    *slog.Logger
	renderer  Renderer
	ai        AI
	transport Transport

	pairingTimeout time.Duration
	aiDelay        time.Duration

	mu        sync.Mutex
	mode      Mode
	state     State
	board     entity.Board
	symbol    entity.Symbol
	myTurn    bool
	room      string
	aiPending bool

	watchdog    *time.Timer
	watchdogSeq uint64
	aiTimer     *time.Timer
	aiSeq       uint64
}

func NewController(logger *slog.Logger, renderer Renderer, ai AI, transport Transport, opts Options) *Controller {
	if opts.PairingTimeout <= 0 {
		opts.PairingTimeout = DefaultPairingTimeout
	}

	if opts.AIDelay <= 0 {
		opts.AIDelay = DefaultAIDelay
	}

	if opts.Mode == "" {
		opts.Mode = ModeMulti
	}

	controller := &Controller{
		logger:    logger.With("component", "session"),
		renderer:  renderer,
		ai:        ai,
		transport: transport,

		pairingTimeout: opts.PairingTimeout,
		aiDelay:        opts.AIDelay,

		mode: opts.Mode,
	}
	controller.resetLocked()

	return controller
}

func (that *Controller) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return Snapshot{
		Mode:   that.mode,
		State:  that.state,
		Board:  that.board,
		Symbol: that.symbol,
		MyTurn: that.myTurn,
		Room:   that.room,
	}
}

// RequestPairing announces readiness and arms the pairing watchdog. It only
// applies to an idle multiplayer session and reports whether it did.
func (that *Controller) RequestPairing(ctx context.Context) bool {
	that.mu.Lock()

	if that.mode != ModeMulti || that.state != StateIdle {
		that.mu.Unlock()
		return false
	}

	that.state = StateWaitingForOpponent
	that.room = ""
	that.symbol = entity.EmptyCell
	that.myTurn = false
	that.startWatchdogLocked()
	that.renderer.ShowStatus(StatusWaiting)

	that.mu.Unlock()

	that.send(ctx, protocol.Ready{})

	return true
}

// LocalMove applies the local player's move on cell. Moves that are not
// allowed right now are dropped and reported as false.
func (that *Controller) LocalMove(ctx context.Context, cell int) bool {
	that.mu.Lock()

	if !that.canMoveLocked(cell) {
		that.mu.Unlock()
		return false
	}

	_ = that.board.Place(cell, that.symbol)
	that.renderer.Render(that.board)

	result := that.board.Evaluate(that.symbol)
	if result.IsTerminal() {
		that.finishLocked(result, true)
		that.mu.Unlock()
		return true
	}

	var outgoing protocol.Message

	switch that.mode {
	case ModeMulti:
		that.myTurn = false
		outgoing = protocol.Move{Index: cell, Room: that.room}
	case ModeSingle:
		that.state = StateInGame
		that.scheduleAILocked()
	}

	that.mu.Unlock()

	if outgoing != nil {
		that.send(ctx, outgoing)
	}

	return true
}

func (that *Controller) canMoveLocked(cell int) bool {
	if !entity.ValidCell(cell) || that.state == StateGameOver || !that.board.IsEmpty(cell) {
		return false
	}

	switch that.mode {
	case ModeMulti:
		return that.state == StateInGame && that.myTurn && that.room != ""
	case ModeSingle:
		return !that.aiPending
	default:
		return false
	}
}

// Handle applies an event received from the coordinator.
func (that *Controller) Handle(msg protocol.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "Handle")

	switch m := msg.(type) {
	case protocol.GameStart:
		that.receiveGameStartLocked(m.Symbol)
	case protocol.Room:
		that.receiveRoomLocked(m.ID)
	case protocol.OpponentMove:
		that.receiveOpponentMoveLocked(m.Index)
	case protocol.OpponentDisconnected:
		that.receiveOpponentDisconnectedLocked()
	case protocol.Error:
		log.Warn("coordinator rejected an event", "reason", m.Message)
	default:
		log.Warn("ignoring unexpected event", "event", fmt.Sprintf("%T", msg))
	}
}

func (that *Controller) receiveGameStartLocked(symbol entity.Symbol) {
	if that.mode != ModeMulti || (that.state != StateWaitingForOpponent && that.state != StateIdle) {
		that.logger.Warn("ignoring gameStart", "state", that.state, "mode", that.mode)
		return
	}

	that.symbol = symbol
	that.myTurn = symbol == entity.SymbolX
	that.state = StateInGame
	that.renderer.ShowStatus(ConnectedAs(symbol))
}

func (that *Controller) receiveRoomLocked(roomID string) {
	if that.mode != ModeMulti || that.state == StateGameOver {
		that.logger.Warn("ignoring room", "room", roomID, "state", that.state)
		return
	}

	that.room = roomID
	that.stopWatchdogLocked()
}

func (that *Controller) receiveOpponentMoveLocked(cell int) {
	if that.mode != ModeMulti || that.state != StateInGame {
		that.logger.Debug("ignoring opponentMove", "cell", cell, "state", that.state)
		return
	}

	opponent := that.symbol.Opponent()
	if err := that.board.Place(cell, opponent); err != nil {
		that.logger.Warn("ignoring opponentMove", "cell", cell, "error", err)
		return
	}

	that.renderer.Render(that.board)

	result := that.board.Evaluate(opponent)
	if result.IsTerminal() {
		that.finishLocked(result, false)
		return
	}

	that.myTurn = true
}

func (that *Controller) receiveOpponentDisconnectedLocked() {
	if that.mode != ModeMulti || that.state != StateInGame {
		return
	}

	that.state = StateGameOver
	that.myTurn = false
	that.stopWatchdogLocked()
	that.renderer.ShowStatus(StatusOpponentDisconnected)
}

// finishLocked freezes the board on a win or a draw.
func (that *Controller) finishLocked(result entity.Result, byLocal bool) {
	that.state = StateGameOver
	that.myTurn = false
	that.stopAILocked()

	if result.Outcome == entity.OutcomeDraw {
		that.renderer.ShowStatus(StatusDraw)
		return
	}

	that.renderer.HighlightWinningLine(result.Line)

	switch {
	case byLocal:
		that.renderer.ShowStatus(StatusYouWin)
	case that.mode == ModeSingle:
		that.renderer.ShowStatus(StatusAIWins)
	default:
		that.renderer.ShowStatus(StatusYouLost)
	}
}

// Reset clears the board and returns to idle; in multiplayer mode pairing
// can be requested again.
func (that *Controller) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.resetLocked()
}

// SetMode switches between single and multiplayer and resets the session.
func (that *Controller) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.mode = mode
	that.resetLocked()

	return nil
}

func (that *Controller) resetLocked() {
	that.stopWatchdogLocked()
	that.stopAILocked()

	that.board.Clear()
	that.state = StateIdle
	that.room = ""

	if that.mode == ModeSingle {
		that.symbol = entity.SymbolX
		that.myTurn = true
	} else {
		that.symbol = entity.EmptyCell
		that.myTurn = false
	}

	that.renderer.Render(that.board)
	that.renderer.ShowStatus(StatusNone)
}

func (that *Controller) startWatchdogLocked() {
	that.stopWatchdogLocked()

	seq := that.watchdogSeq
	that.watchdog = time.AfterFunc(that.pairingTimeout, func() {
		that.onWatchdog(seq)
	})
}

// stopWatchdogLocked also invalidates a callback that already fired but has
// not taken mu yet.
func (that *Controller) stopWatchdogLocked() {
	that.watchdogSeq++

	if that.watchdog != nil {
		that.watchdog.Stop()
		that.watchdog = nil
	}
}

func (that *Controller) onWatchdog(seq uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if seq != that.watchdogSeq {
		return
	}
	that.watchdog = nil

	if that.room != "" || that.state != StateWaitingForOpponent {
		return
	}

	that.logger.Info("pairing timed out", "after", that.pairingTimeout)

	that.state = StateIdle
	that.renderer.ShowStatus(StatusNoOpponent)
}

func (that *Controller) scheduleAILocked() {
	that.stopAILocked()

	that.aiPending = true
	seq := that.aiSeq
	that.aiTimer = time.AfterFunc(that.aiDelay, func() {
		that.onAIMove(seq)
	})
}

func (that *Controller) stopAILocked() {
	that.aiSeq++
	that.aiPending = false

	if that.aiTimer != nil {
		that.aiTimer.Stop()
		that.aiTimer = nil
	}
}

func (that *Controller) onAIMove(seq uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if seq != that.aiSeq || that.state == StateGameOver {
		return
	}
	that.aiPending = false
	that.aiTimer = nil

	log := that.logger.With("method", "onAIMove")

	cell, err := that.ai.ChooseMove(that.board)
	if err != nil {
		log.Error("AI could not move", "error", err)
		return
	}

	aiSymbol := that.symbol.Opponent()
	if err = that.board.Place(cell, aiSymbol); err != nil {
		log.Error("AI chose an invalid cell", "cell", cell, "error", err)
		return
	}

	that.renderer.Render(that.board)

	if result := that.board.Evaluate(aiSymbol); result.IsTerminal() {
		that.finishLocked(result, false)
	}
}

func (that *Controller) send(ctx context.Context, msg protocol.Message) {
	if err := that.transport.Send(ctx, msg); err != nil {
		that.logger.Warn("failed to send event", "event", msg.Event(), "error", err)
	}
}
