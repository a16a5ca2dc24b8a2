package domain

import (
    "errors"
    "fmt"
    "strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
    Empty Cell = iota
    X
    O
)

// String returns the mark as a single character, "." for an empty cell.
func (c Cell) String() string {
    switch c {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return "."
    }
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
    switch c {
    case X:
        return O
    case O:
        return X
    default:
        return Empty
    }
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Errors returned when a board fails validation.
var (
    ErrBoardSize   = errors.New("board must have exactly 9 cells")
    ErrBoardCell   = errors.New("invalid board cell")
    ErrBoardCounts = errors.New("invalid mark counts")
)

// ParseBoard reads a 9 character board. X and O are marks; '.', '-', '_' and
// ' ' are empty cells.
func ParseBoard(s string) (Board, error) {
    var b Board
    if len(s) != len(b) {
        return b, fmt.Errorf("%w: got %d", ErrBoardSize, len(s))
    }
    for i := 0; i < len(s); i++ {
        switch s[i] {
        case 'X', 'x':
            b[i] = X
        case 'O', 'o':
            b[i] = O
        case '.', '-', '_', ' ':
            b[i] = Empty
        default:
            return Board{}, fmt.Errorf("%w %q at %d", ErrBoardCell, s[i], i)
        }
    }
    return b, nil
}

// MustParseBoard is ParseBoard that panics on error. Intended for fixtures.
func MustParseBoard(s string) Board {
    b, err := ParseBoard(s)
    if err != nil {
        panic(err)
    }
    return b
}

// String renders the board as 9 characters, row-major.
func (b Board) String() string {
    var sb strings.Builder
    sb.Grow(len(b))
    for _, c := range b {
        sb.WriteString(c.String())
    }
    return sb.String()
}

// Count returns how many cells hold c.
func (b Board) Count(c Cell) int {
    n := 0
    for _, v := range b {
        if v == c {
            n++
        }
    }
    return n
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
    for _, c := range b {
        if c == Empty {
            return false
        }
    }
    return true
}

// EmptyCells returns the indices of empty cells in ascending order.
func (b Board) EmptyCells() []int {
    out := make([]int, 0, len(b))
    for i, c := range b {
        if c == Empty {
            out = append(out, i)
        }
    }
    return out
}

// Swap returns a copy with X and O exchanged.
func (b Board) Swap() Board {
    for i, c := range b {
        b[i] = c.Opponent()
    }
    return b
}

// ToMove returns whose turn it is given X moves first.
func (b Board) ToMove() Cell {
    if b.Count(X) > b.Count(O) {
        return O
    }
    return X
}

// Validate checks the mark counts of a board reachable by alternating play
// with X moving first.
func (b Board) Validate() error {
    d := b.Count(X) - b.Count(O)
    if d != 0 && d != 1 {
        return fmt.Errorf("%w: X=%d O=%d", ErrBoardCounts, b.Count(X), b.Count(O))
    }
    return nil
}
