package domain

import "errors"

// Game holds the current state of a Tic-Tac-Toe match.
type Game struct {
    Board   Board
    Turn    Cell
    Winner  Cell
    Outcome Outcome
    Over    bool
    Moves   int
}

// Errors returned by domain operations.
var (
    ErrOutOfBounds = errors.New("out of bounds")
    ErrOccupied    = errors.New("cell occupied")
    ErrGameOver    = errors.New("game over")
)

// New returns a new game with X to move.
func New() Game {
    return Game{Turn: X}
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
    if g.Over {
        return ErrGameOver
    }
    if r < 0 || r > 2 || c < 0 || c > 2 {
        return ErrOutOfBounds
    }
    return g.PlayIndex(r*3 + c)
}

// PlayIndex plays the current turn at cell idx (0..8).
func (g *Game) PlayIndex(idx int) error {
    if g.Over {
        return ErrGameOver
    }
    if idx < 0 || idx >= len(g.Board) {
        return ErrOutOfBounds
    }
    if g.Board[idx] != Empty {
        return ErrOccupied
    }

    // Place the mark
    g.Board[idx] = g.Turn
    g.Moves++

    g.Outcome = Evaluate(g.Board)
    switch g.Outcome.Kind {
    case Win:
        g.Winner = g.Outcome.Winner
        g.Over = true
        return nil
    case Draw:
        g.Winner = Empty
        g.Over = true
        return nil
    }

    g.Turn = g.Turn.Opponent()
    return nil
}
