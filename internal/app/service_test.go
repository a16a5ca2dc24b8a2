package app

import (
    "context"
    "errors"
    "fmt"
    "math/rand/v2"
    "sync"
    "testing"
    "time"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

// minimal renderer for tests: encode moves count as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("moves=%d", gs.Game.Moves)) }

// runNow executes the computer move inline.
func runNow(_ time.Duration, f func()) { f() }

// manualScheduler holds computer moves until run is called.
type manualScheduler struct {
    mu      sync.Mutex
    pending []func()
    delays  []time.Duration
}

func (m *manualScheduler) schedule(d time.Duration, f func()) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.pending = append(m.pending, f)
    m.delays = append(m.delays, d)
}

func (m *manualScheduler) run() int {
    m.mu.Lock()
    fs := m.pending
    m.pending = nil
    m.mu.Unlock()
    for _, f := range fs {
        f()
    }
    return len(fs)
}

// scripted plays the listed cells in order.
type scripted struct {
    mu    sync.Mutex
    moves []int
}

func (s *scripted) Choose(b domain.Board, d ai.Difficulty) ai.Choice {
    s.mu.Lock()
    defer s.mu.Unlock()
    m := s.moves[0]
    s.moves = s.moves[1:]
    return ai.Choice{Move: m, Strategy: ai.StrategyRandom}
}

func newTestService(opts ...Option) *Service {
    base := []Option{
        WithSelector(ai.NewSelector(rand.NewPCG(1, 1))),
        WithScheduler(runNow),
    }
    return NewServiceWithRenderer(testRenderer, append(base, opts...)...)
}

func playAll(t *testing.T, s *Service, id string, cells ...int) *GameState {
    t.Helper()
    var gs *GameState
    var err error
    for _, c := range cells {
        gs, err = s.Play(id, c/3, c%3)
        if err != nil {
            t.Fatalf("play %d: %v", c, err)
        }
    }
    return gs
}

func TestCreateAndGet(t *testing.T) {
    s := newTestService(WithDefaultDifficulty(ai.Medium))
    gs, err := s.CreateGame(ai.Easy)
    if err != nil {
        t.Fatalf("CreateGame error: %v", err)
    }
    if gs.ID == "" {
        t.Fatalf("expected non-empty game ID")
    }
    if gs.Game.Turn != domain.X || gs.Phase != PhaseHumanTurn || gs.Difficulty != ai.Easy {
        t.Fatalf("unexpected initial state: turn=%v phase=%v difficulty=%v", gs.Game.Turn, gs.Phase, gs.Difficulty)
    }
    if gs.Created.IsZero() || gs.Updated.IsZero() {
        t.Fatalf("expected timestamps to be set")
    }
    got, ok := s.Get(gs.ID)
    if !ok || got.ID != gs.ID {
        t.Fatalf("Get should find created game")
    }

    other, _ := s.CreateGame(ai.Difficulty("bogus"))
    if other.Difficulty != ai.Medium {
        t.Fatalf("expected default difficulty medium, got %v", other.Difficulty)
    }
    if _, ok := s.Get("missing"); ok {
        t.Fatalf("Get should miss unknown id")
    }
}

func TestCreateUsesIDGenerator(t *testing.T) {
    s := newTestService(WithIDGenerator(func() string { return "fixed" }))
    if gs, err := s.CreateGame(ai.Easy); err != nil || gs.ID != "fixed" {
        t.Fatalf("expected id fixed, got %v, err=%v", gs, err)
    }
    if _, err := s.CreateGame(ai.Easy); err == nil {
        t.Fatalf("expected duplicate id error")
    }
}

func TestHumanMoveTriggersComputerReply(t *testing.T) {
    s := newTestService()
    gs, _ := s.CreateGame(ai.Unbeatable)

    st, err := s.Play(gs.ID, 0, 0)
    if err != nil {
        t.Fatalf("play failed: %v", err)
    }
    if st.Phase != PhaseComputerThinking || st.Game.Moves != 1 {
        t.Fatalf("expected thinking after human move, got phase=%v moves=%d", st.Phase, st.Game.Moves)
    }
    latest, _ := s.Get(gs.ID)
    if latest.Phase != PhaseHumanTurn || latest.Game.Moves != 2 {
        t.Fatalf("expected computer reply, got phase=%v moves=%d", latest.Phase, latest.Game.Moves)
    }
    // corner opening is only held by the center
    if latest.LastMove != 4 || latest.Game.Board[4] != domain.O {
        t.Fatalf("expected computer to take center, board %s last=%d", latest.Game.Board, latest.LastMove)
    }
}

func TestPlayWhileThinkingAndBadCells(t *testing.T) {
    sched := &manualScheduler{}
    s := newTestService(WithScheduler(sched.schedule), WithThinkDelay(250*time.Millisecond))
    gs, _ := s.CreateGame(ai.Unbeatable)

    if _, err := s.Play(gs.ID, 1, 1); err != nil {
        t.Fatalf("play failed: %v", err)
    }
    if _, err := s.Play(gs.ID, 0, 0); !errors.Is(err, ErrNotYourTurn) {
        t.Fatalf("expected ErrNotYourTurn while thinking, got %v", err)
    }
    if len(sched.delays) != 1 || sched.delays[0] != 250*time.Millisecond {
        t.Fatalf("expected one move scheduled after 250ms, got %v", sched.delays)
    }
    if n := sched.run(); n != 1 {
        t.Fatalf("expected 1 pending move, ran %d", n)
    }
    if _, err := s.Play(gs.ID, 1, 1); !errors.Is(err, domain.ErrOccupied) {
        t.Fatalf("expected ErrOccupied, got %v", err)
    }
    if _, err := s.Play(gs.ID, 3, 0); !errors.Is(err, domain.ErrOutOfBounds) {
        t.Fatalf("expected ErrOutOfBounds, got %v", err)
    }
    if _, err := s.Play("nope", 0, 0); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestScoresTally(t *testing.T) {
    sel := &scripted{moves: []int{
        3, 4, // human takes the top row
        3, 4, 5, // computer takes the middle row
        1, 4, 5, 6, // draw
    }}
    s := newTestService(WithSelector(sel))
    gs, _ := s.CreateGame(ai.Easy)

    st := playAll(t, s, gs.ID, 0, 1, 2)
    if st.Phase != PhaseGameOver || st.Game.Winner != domain.X || st.Scores != (Scores{Player: 1}) {
        t.Fatalf("expected human win, got phase=%v winner=%v scores=%+v", st.Phase, st.Game.Winner, st.Scores)
    }
    if _, err := s.Play(gs.ID, 2, 2); !errors.Is(err, domain.ErrGameOver) {
        t.Fatalf("expected ErrGameOver, got %v", err)
    }

    if _, err := s.Reset(gs.ID); err != nil {
        t.Fatalf("reset: %v", err)
    }
    playAll(t, s, gs.ID, 0, 1, 8)
    latest, _ := s.Get(gs.ID)
    if latest.Phase != PhaseGameOver || latest.Game.Winner != domain.O || latest.Game.Outcome.Line != [3]int{3, 4, 5} {
        t.Fatalf("expected computer win on middle row, got %+v", latest.Game)
    }
    if latest.Scores != (Scores{Player: 1, Computer: 1}) {
        t.Fatalf("unexpected scores %+v", latest.Scores)
    }

    s.Reset(gs.ID)
    // X O X / X O O / O X X
    playAll(t, s, gs.ID, 0, 2, 3, 7, 8)
    latest, _ = s.Get(gs.ID)
    if latest.Game.Outcome.Kind != domain.Draw || latest.Scores != (Scores{Player: 1, Computer: 1, Draws: 1}) {
        t.Fatalf("expected draw tallied, got outcome=%v scores=%+v", latest.Game.Outcome.Kind, latest.Scores)
    }
    if latest.Round != 2 {
        t.Fatalf("expected round 2, got %d", latest.Round)
    }
}

func TestResetDiscardsPendingMove(t *testing.T) {
    sched := &manualScheduler{}
    s := newTestService(WithScheduler(sched.schedule))
    gs, _ := s.CreateGame(ai.Unbeatable)

    s.Play(gs.ID, 0, 0)
    st, err := s.Reset(gs.ID)
    if err != nil {
        t.Fatalf("reset: %v", err)
    }
    if st.Phase != PhaseHumanTurn || st.Round != 1 {
        t.Fatalf("unexpected state after reset: phase=%v round=%d", st.Phase, st.Round)
    }
    sched.run()
    latest, _ := s.Get(gs.ID)
    if latest.Game.Moves != 0 || latest.Game.Board != (domain.Board{}) {
        t.Fatalf("stale computer move applied: %s", latest.Game.Board)
    }
}

func TestSetDifficulty(t *testing.T) {
    s := newTestService()
    gs, _ := s.CreateGame(ai.Unbeatable)
    playAll(t, s, gs.ID, 0)

    st, err := s.SetDifficulty(gs.ID, ai.Easy)
    if err != nil {
        t.Fatalf("SetDifficulty: %v", err)
    }
    if st.Difficulty != ai.Easy || st.Game.Moves != 0 || st.Round != 1 {
        t.Fatalf("expected fresh easy round, got difficulty=%v moves=%d round=%d", st.Difficulty, st.Game.Moves, st.Round)
    }
    if _, err := s.SetDifficulty(gs.ID, "nightmare"); !errors.Is(err, ai.ErrUnknownDifficulty) {
        t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
    }
    if _, err := s.SetDifficulty("missing", ai.Easy); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestResetScores(t *testing.T) {
    s := newTestService(WithSelector(&scripted{moves: []int{3, 4}}))
    gs, _ := s.CreateGame(ai.Easy)
    playAll(t, s, gs.ID, 0, 1, 2)

    st, err := s.ResetScores(gs.ID)
    if err != nil {
        t.Fatalf("ResetScores: %v", err)
    }
    if st.Scores != (Scores{}) || st.Phase != PhaseHumanTurn || st.Game.Moves != 0 {
        t.Fatalf("expected cleared session, got scores=%+v phase=%v", st.Scores, st.Phase)
    }
}

func TestUnbeatableSessionNeverLoses(t *testing.T) {
    s := newTestService()
    gs, _ := s.CreateGame(ai.Unbeatable)
    rng := rand.New(rand.NewPCG(5, 5))
    for round := 0; round < 30; round++ {
        for {
            st, _ := s.Get(gs.ID)
            if st.Phase == PhaseGameOver {
                break
            }
            empty := st.Game.Board.EmptyCells()
            c := empty[rng.IntN(len(empty))]
            if _, err := s.Play(gs.ID, c/3, c%3); err != nil {
                t.Fatalf("play: %v", err)
            }
        }
        s.Reset(gs.ID)
    }
    st, _ := s.Get(gs.ID)
    if st.Scores.Player != 0 || st.Scores.Computer+st.Scores.Draws != 30 {
        t.Fatalf("unexpected tally %+v", st.Scores)
    }
}

func TestSubscribeAndBroadcast(t *testing.T) {
    sched := &manualScheduler{}
    s := newTestService(WithScheduler(sched.schedule))
    gs, _ := s.CreateGame(ai.Unbeatable)

    ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
    defer cancel()
    ch, unsub := s.Subscribe(ctx, gs.ID)
    defer unsub()

    expect := func(want string) {
        t.Helper()
        select {
        case b, ok := <-ch:
            if !ok {
                t.Fatalf("channel closed unexpectedly")
            }
            if string(b) != want {
                t.Fatalf("unexpected broadcast payload: %q, want %q", string(b), want)
            }
        case <-ctx.Done():
            t.Fatalf("timed out waiting for broadcast")
        }
    }

    if _, err := s.Play(gs.ID, 0, 0); err != nil {
        t.Fatalf("play failed: %v", err)
    }
    expect("moves=1")
    sched.run()
    expect("moves=2")
    s.Reset(gs.ID)
    expect("moves=0")
}

func TestLaggingSubscriberGetsLatestState(t *testing.T) {
    sched := &manualScheduler{}
    s := newTestService(WithScheduler(sched.schedule))
    gs, _ := s.CreateGame(ai.Unbeatable)

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    ch, unsub := s.Subscribe(ctx, gs.ID)
    defer unsub()

    // Human move and computer reply land before the subscriber reads.
    if _, err := s.Play(gs.ID, 0, 0); err != nil {
        t.Fatalf("play: %v", err)
    }
    sched.run()

    b, ok := <-ch
    if !ok {
        t.Fatalf("lagging subscriber was closed")
    }
    if string(b) != "moves=2" {
        t.Fatalf("expected latest payload moves=2, got %q", b)
    }
    select {
    case b, ok := <-ch:
        t.Fatalf("expected no stale payload, got %q (open=%v)", b, ok)
    default:
    }

    s.Reset(gs.ID)
    if b, ok := <-ch; !ok || string(b) != "moves=0" {
        t.Fatalf("expected subscriber to keep receiving, got %q (open=%v)", b, ok)
    }
}

func TestSubscribeUnknownGame(t *testing.T) {
    s := newTestService()
    ch, unsub := s.Subscribe(context.Background(), "missing")
    defer unsub()

    if _, ok := <-ch; ok {
        t.Fatalf("expected closed channel for unknown game")
    }
    s.mu.Lock()
    n := len(s.subs)
    s.mu.Unlock()
    if n != 0 {
        t.Fatalf("unknown game left %d subscriber sets behind", n)
    }
}

func TestPrune(t *testing.T) {
    s := newTestService()
    gs, _ := s.CreateGame(ai.Easy)
    ch, _ := s.Subscribe(context.Background(), gs.ID)

    if n := s.Prune(time.Hour); n != 0 {
        t.Fatalf("fresh game should survive, pruned %d", n)
    }
    if n := s.Prune(-time.Second); n != 1 {
        t.Fatalf("expected 1 pruned, got %d", n)
    }
    if _, ok := s.Get(gs.ID); ok {
        t.Fatalf("pruned game still present")
    }
    if _, ok := <-ch; ok {
        t.Fatalf("expected subscriber closed on prune")
    }
}
