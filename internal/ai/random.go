package ai

import (
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

// RandomPlayer picks uniformly among the empty cells.
type RandomPlayer struct {
	intn func(n int) int
}

func NewRandomPlayer() *RandomPlayer {
	return &RandomPlayer{
		intn: rand.Intn, //nolint: gosec // it's ok
	}
}

func (that *RandomPlayer) ChooseMove(board entity.Board) (int, error) {
	availableCells := board.EmptyCells()

	if len(availableCells) == 0 {
		return 0, apperror.ErrNoAvailableMoves
	}

	return availableCells[that.intn(len(availableCells))], nil
}
