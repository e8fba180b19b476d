package session

import "github.com/rocketscienceinc/tictactoe-relay/internal/entity"

// Status is the line shown to the player under the board.
type Status string

const (
	StatusNone                 Status = ""
	StatusWaiting              Status = "Waiting for opponent..."
	StatusNoOpponent           Status = "No opponent found."
	StatusYouWin               Status = "You win!"
	StatusYouLost              Status = "You lost!"
	StatusAIWins               Status = "AI wins!"
	StatusDraw                 Status = "Draw!"
	StatusOpponentDisconnected Status = "Opponent disconnected!"
)

func ConnectedAs(symbol entity.Symbol) Status {
	return Status("Connected! You are " + string(symbol))
}
