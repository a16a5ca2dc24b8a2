package ai

import (
    "math/rand/v2"
    "sync"
    "time"

    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

// MediumSearchRate is the share of medium moves that use the full search.
const MediumSearchRate = 0.7

// Strategy names the rule that produced a move.
type Strategy string

const (
    StrategySearch Strategy = "search"
    StrategyRandom Strategy = "random"
)

// Choice is a selected move with how it was found.
type Choice struct {
    Move     int
    Strategy Strategy
    Nodes    int
}

type randSource interface {
    Float64() float64
    IntN(n int) int
}

// Selector maps a difficulty to a move. Safe for concurrent use.
type Selector struct {
    mu  sync.Mutex
    rng randSource
}

// NewSelector returns a selector drawing from src. A nil src is seeded from the clock.
func NewSelector(src rand.Source) *Selector {
    if src == nil {
        seed := uint64(time.Now().UnixNano())
        src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
    }
    return &Selector{rng: rand.New(src)}
}

var defaultSelector = NewSelector(nil)

// SelectMove picks a move for the computer using the process-wide selector.
func SelectMove(b domain.Board, d Difficulty) int {
    return defaultSelector.SelectMove(b, d)
}

// SelectMove returns the cell the computer plays, or -1 if the board has no empty cell.
func (s *Selector) SelectMove(b domain.Board, d Difficulty) int {
    return s.Choose(b, d).Move
}

// Choose is SelectMove that also reports the strategy used. Unknown
// difficulties play as Unbeatable.
func (s *Selector) Choose(b domain.Board, d Difficulty) Choice {
    switch d {
    case Easy:
        return s.random(b)
    case Medium:
        if s.draw() < MediumSearchRate {
            return search(b)
        }
        return s.random(b)
    default:
        return search(b)
    }
}

func search(b domain.Board) Choice {
    res := Search(b)
    return Choice{Move: res.Move, Strategy: StrategySearch, Nodes: res.Nodes}
}

func (s *Selector) random(b domain.Board) Choice {
    empty := b.EmptyCells()
    if len(empty) == 0 {
        return Choice{Move: -1, Strategy: StrategyRandom}
    }
    s.mu.Lock()
    i := s.rng.IntN(len(empty))
    s.mu.Unlock()
    return Choice{Move: empty[i], Strategy: StrategyRandom}
}

func (s *Selector) draw() float64 {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.rng.Float64()
}
