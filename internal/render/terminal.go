package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/session"
)

// Terminal draws the board as text; cells are numbered 1-9 for input.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (that *Terminal) Render(board entity.Board) {
	that.write("\n" + board.String())
}

func (that *Terminal) HighlightWinningLine(line [3]int) {
	cells := make([]string, 0, len(line))
	for _, cell := range line {
		cells = append(cells, fmt.Sprintf("%d", cell+1))
	}

	that.write(fmt.Sprintf("winning line: %s\n", strings.Join(cells, "-")))
}

func (that *Terminal) ShowStatus(status session.Status) {
	if status == session.StatusNone {
		return
	}

	that.write(string(status) + "\n")
}

func (that *Terminal) write(text string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, _ = io.WriteString(that.out, text)
}
