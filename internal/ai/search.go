package ai

import (
    "math"

    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

// Computer and Human are the marks the search plays for and against.
const (
    Computer = domain.O
    Human    = domain.X
)

const winScore = 10

// Result is the outcome of a full search from a position with the computer to move.
type Result struct {
    Move  int // -1 when no cell is empty
    Score int
    Nodes int // positions visited
}

// BestMove returns the optimal cell for the computer.
func BestMove(b domain.Board) int {
    return Search(b).Move
}

// Search runs alpha-beta minimax over every reply. Faster wins and slower
// losses score better; ties keep the lowest index.
func Search(b domain.Board) Result {
    s := searcher{board: &b}
    res := Result{Move: -1, Score: math.MinInt}
    for i := range s.board {
        if s.board[i] != domain.Empty {
            continue
        }
        s.board[i] = Computer
        score := s.value(0, false, math.MinInt, math.MaxInt)
        s.board[i] = domain.Empty
        if score > res.Score {
            res.Score = score
            res.Move = i
        }
    }
    if res.Move < 0 {
        res.Score = 0
    }
    res.Nodes = s.nodes
    return res
}

type searcher struct {
    board *domain.Board
    nodes int
}

func (s *searcher) value(depth int, maximizing bool, alpha, beta int) int {
    s.nodes++
    out := domain.Evaluate(*s.board)
    switch out.Kind {
    case domain.Win:
        if out.Winner == Computer {
            return winScore - depth
        }
        return depth - winScore
    case domain.Draw:
        return 0
    }

    if maximizing {
        best := math.MinInt
        for i := range s.board {
            if s.board[i] != domain.Empty {
                continue
            }
            s.board[i] = Computer
            v := s.value(depth+1, false, alpha, beta)
            s.board[i] = domain.Empty
            best = max(best, v)
            alpha = max(alpha, v)
            if beta <= alpha {
                break
            }
        }
        return best
    }

    best := math.MaxInt
    for i := range s.board {
        if s.board[i] != domain.Empty {
            continue
        }
        s.board[i] = Human
        v := s.value(depth+1, true, alpha, beta)
        s.board[i] = domain.Empty
        best = min(best, v)
        beta = min(beta, v)
        if beta <= alpha {
            break
        }
    }
    return best
}
