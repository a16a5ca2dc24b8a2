package ai

import (
    "errors"
    "math/rand/v2"
    "sync"
    "testing"

    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

type stubRand struct {
    f float64
    n int
}

func (s stubRand) Float64() float64 { return s.f }
func (s stubRand) IntN(int) int     { return s.n }

func TestParseDifficulty(t *testing.T) {
    cases := map[string]Difficulty{
        "easy":        Easy,
        "Medium":      Medium,
        " UNBEATABLE ": Unbeatable,
    }
    for in, want := range cases {
        got, err := ParseDifficulty(in)
        if err != nil || got != want {
            t.Fatalf("ParseDifficulty(%q) = %q, %v; want %q", in, got, err, want)
        }
    }
    if _, err := ParseDifficulty("impossible"); !errors.Is(err, ErrUnknownDifficulty) {
        t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
    }
    if Medium.Title() != "Medium" {
        t.Fatalf("unexpected title %q", Medium.Title())
    }
}

func TestOneEmptyCellAnyDifficulty(t *testing.T) {
    sel := NewSelector(rand.NewPCG(1, 2))
    checked := 0
    for empty := 0; empty < 9; empty++ {
        // every split of the other 8 cells into 4 X and 4 O
        for mask := 0; mask < 1<<8; mask++ {
            if bitCount(mask) != 4 {
                continue
            }
            var b domain.Board
            bit := 0
            for i := range b {
                if i == empty {
                    continue
                }
                if mask&(1<<bit) != 0 {
                    b[i] = domain.X
                } else {
                    b[i] = domain.O
                }
                bit++
            }
            if domain.Evaluate(b).Terminal() {
                continue
            }
            for _, d := range Difficulties() {
                if got := sel.SelectMove(b, d); got != empty {
                    t.Fatalf("%s on %s: got %d, want %d", d, b, got, empty)
                }
            }
            checked++
        }
    }
    if checked == 0 {
        t.Fatalf("no boards checked")
    }
}

func bitCount(v int) int {
    n := 0
    for ; v != 0; v &= v - 1 {
        n++
    }
    return n
}

func TestSelectMoveDoesNotMutateBoard(t *testing.T) {
    sel := NewSelector(rand.NewPCG(3, 4))
    boards := []string{"X........", "X...O..X.", "XOX.O....", "XX..O...."}
    for _, s := range boards {
        b := domain.MustParseBoard(s)
        for _, d := range append(Difficulties(), Difficulty("bogus")) {
            for i := 0; i < 20; i++ {
                got := sel.SelectMove(b, d)
                if b.String() != s {
                    t.Fatalf("%s mutated board %s -> %s", d, s, b)
                }
                if got < 0 || b[got] != domain.Empty {
                    t.Fatalf("%s returned illegal move %d on %s", d, got, s)
                }
            }
        }
    }
}

func TestEasyIsUniform(t *testing.T) {
    sel := NewSelector(rand.NewPCG(42, 7))
    b := domain.MustParseBoard("X.O.X.O..")
    empty := b.EmptyCells()
    const trials = 10000
    counts := make(map[int]int)
    for i := 0; i < trials; i++ {
        c := sel.Choose(b, Easy)
        if c.Strategy != StrategyRandom {
            t.Fatalf("easy must not search, got %s", c.Strategy)
        }
        counts[c.Move]++
    }
    expected := trials / len(empty)
    for _, cell := range empty {
        got := counts[cell]
        if got < expected*8/10 || got > expected*12/10 {
            t.Fatalf("cell %d picked %d times, expected about %d (%v)", cell, got, expected, counts)
        }
    }
    if len(counts) != len(empty) {
        t.Fatalf("picked non-empty cells: %v", counts)
    }
}

func TestMediumThreshold(t *testing.T) {
    b := domain.MustParseBoard("XX..O....")
    below := &Selector{rng: stubRand{f: 0.69, n: 0}}
    if c := below.Choose(b, Medium); c.Strategy != StrategySearch || c.Move != 2 {
        t.Fatalf("draw below 0.7 should search, got %+v", c)
    }
    at := &Selector{rng: stubRand{f: 0.7, n: 0}}
    if c := at.Choose(b, Medium); c.Strategy != StrategyRandom || c.Move != 2 {
        // first empty cell happens to be 2 as well
        t.Fatalf("draw at 0.7 should pick randomly, got %+v", c)
    }
    at = &Selector{rng: stubRand{f: 0.95, n: 1}}
    if c := at.Choose(b, Medium); c.Move != 3 {
        t.Fatalf("expected second empty cell 3, got %+v", c)
    }
}

func TestMediumMixRate(t *testing.T) {
    sel := NewSelector(rand.NewPCG(9, 9))
    b := domain.MustParseBoard("X........")
    const trials = 4000
    searched := 0
    for i := 0; i < trials; i++ {
        if sel.Choose(b, Medium).Strategy == StrategySearch {
            searched++
        }
    }
    rate := float64(searched) / trials
    if rate < 0.65 || rate > 0.75 {
        t.Fatalf("search rate %.3f, expected about %.1f", rate, MediumSearchRate)
    }
}

func TestUnknownDifficultyFallsBackToSearch(t *testing.T) {
    sel := &Selector{rng: stubRand{f: 0.99, n: 0}}
    b := domain.MustParseBoard("XX..O....")
    c := sel.Choose(b, Difficulty("nightmare"))
    if c.Strategy != StrategySearch || c.Move != BestMove(b) {
        t.Fatalf("unknown difficulty should search, got %+v", c)
    }
    if c := sel.Choose(b, Unbeatable); c.Strategy != StrategySearch || c.Nodes == 0 {
        t.Fatalf("unbeatable should search, got %+v", c)
    }
}

func TestNoEmptyCell(t *testing.T) {
    full := domain.MustParseBoard("XOXXOOOXX")
    for _, d := range Difficulties() {
        if got := SelectMove(full, d); got != -1 {
            t.Fatalf("%s on full board: got %d, want -1", d, got)
        }
    }
}

func TestSelectorConcurrentUse(t *testing.T) {
    sel := NewSelector(nil)
    b := domain.MustParseBoard("X...O....")
    var wg sync.WaitGroup
    for i := 0; i < 8; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for j := 0; j < 50; j++ {
                if m := sel.SelectMove(b, Medium); b[m] != domain.Empty {
                    t.Errorf("illegal move %d", m)
                    return
                }
            }
        }()
    }
    wg.Wait()
}
