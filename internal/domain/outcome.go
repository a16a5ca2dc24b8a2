package domain

// OutcomeKind classifies a board.
type OutcomeKind uint8

const (
    InProgress OutcomeKind = iota
    Win
    Draw
)

func (k OutcomeKind) String() string {
    switch k {
    case Win:
        return "win"
    case Draw:
        return "draw"
    default:
        return "in-progress"
    }
}

// WinPatterns lists every line of three: rows, columns, then diagonals.
// Evaluate scans them in this order.
var WinPatterns = [8][3]int{
    // rows
    {0, 1, 2}, {3, 4, 5}, {6, 7, 8},
    // cols
    {0, 3, 6}, {1, 4, 7}, {2, 5, 8},
    // diags
    {0, 4, 8}, {2, 4, 6},
}

// Outcome is the result of evaluating a board. Winner and Line are only set
// for a Win.
type Outcome struct {
    Kind   OutcomeKind
    Winner Cell
    Line   [3]int
}

// Terminal reports whether the game is over.
func (o Outcome) Terminal() bool { return o.Kind != InProgress }

// Contains reports whether cell i is part of the winning line.
func (o Outcome) Contains(i int) bool {
    if o.Kind != Win {
        return false
    }
    return o.Line[0] == i || o.Line[1] == i || o.Line[2] == i
}

// Evaluate returns the first completed line in WinPatterns order, otherwise a
// draw for a full board or InProgress.
func Evaluate(b Board) Outcome {
    for _, ln := range WinPatterns {
        c := b[ln[0]]
        if c != Empty && c == b[ln[1]] && c == b[ln[2]] {
            return Outcome{Kind: Win, Winner: c, Line: ln}
        }
    }
    if b.Full() {
        return Outcome{Kind: Draw}
    }
    return Outcome{Kind: InProgress}
}
