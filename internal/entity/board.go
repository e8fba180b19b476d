package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
)

type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"

	EmptyCell Symbol = ""
)

const BoardSize = 9

type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeWin      Outcome = "win"
	OutcomeDraw     Outcome = "draw"
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Valid reports whether the symbol is X or O.
func (that Symbol) Valid() bool {
	return that == SymbolX || that == SymbolO
}

// Opponent returns the other playing symbol.
func (that Symbol) Opponent() Symbol {
	if that == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// Result is the terminal evaluation of a board after a placement.
type Result struct {
	Outcome Outcome
	Winner  Symbol
	Line    [3]int
}

func (that Result) IsTerminal() bool {
	return that.Outcome == OutcomeWin || that.Outcome == OutcomeDraw
}

type Board [BoardSize]Symbol

func ValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}

// Place puts the symbol on the cell, overwriting whatever is there.
// Occupancy is the caller's concern.
func (that *Board) Place(cell int, symbol Symbol) error {
	if !ValidCell(cell) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	that[cell] = symbol

	return nil
}

func (that *Board) IsEmpty(cell int) bool {
	return ValidCell(cell) && that[cell] == EmptyCell
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func (that *Board) Clear() {
	*that = Board{}
}

// WinningLine returns the first triple fully held by symbol.
func (that *Board) WinningLine(symbol Symbol) ([3]int, bool) {
	if symbol == EmptyCell {
		return [3]int{}, false
	}

	for _, combo := range WinCombos {
		if that[combo[0]] == symbol && that[combo[1]] == symbol && that[combo[2]] == symbol {
			return combo, true
		}
	}

	return [3]int{}, false
}

// Evaluate checks the board for the symbol that was just placed:
// a win for it, otherwise a draw on a full board, otherwise the game continues.
func (that *Board) Evaluate(placed Symbol) Result {
	if line, ok := that.WinningLine(placed); ok {
		return Result{Outcome: OutcomeWin, Winner: placed, Line: line}
	}

	// the game will continue until all the squares are full
	if that.IsFull() {
		return Result{Outcome: OutcomeDraw}
	}

	return Result{Outcome: OutcomeContinue}
}

func (that *Board) String() string {
	cell := func(i int) string {
		if that[i] == EmptyCell {
			return fmt.Sprintf("%d", i+1)
		}
		return string(that[i])
	}

	return fmt.Sprintf(" %s | %s | %s\n---+---+---\n %s | %s | %s\n---+---+---\n %s | %s | %s\n",
		cell(0), cell(1), cell(2),
		cell(3), cell(4), cell(5),
		cell(6), cell(7), cell(8),
	)
}
