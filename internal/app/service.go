package app

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

// Errors exposed by the service layer.
var (
    ErrNotFound    = errors.New("game not found")
    ErrNotYourTurn = errors.New("not your turn")
)

// Phase is where a game is in its turn cycle.
type Phase string

const (
    PhaseHumanTurn        Phase = "human-turn"
    PhaseComputerThinking Phase = "computer-thinking"
    PhaseGameOver         Phase = "game-over"
)

// Scores tallies finished games for a session.
type Scores struct {
    Player   int `json:"player"`
    Computer int `json:"computer"`
    Draws    int `json:"draws"`
}

// GameState is the in-memory state tracked per game.
type GameState struct {
    ID         string
    Game       domain.Game
    Difficulty ai.Difficulty
    Phase      Phase
    Scores     Scores
    Round      int
    LastMove   int // computer's last cell, -1 if none this round
    Created    time.Time
    Updated    time.Time
}

type subscriber struct {
    mu     sync.Mutex
    ch     chan []byte
    closed bool
}

func (s *subscriber) close() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if !s.closed {
        s.closed = true
        close(s.ch)
    }
}

// send delivers without blocking. A payload still waiting in the buffer is
// replaced, so a reader always catches up to the latest state.
func (s *subscriber) send(b []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return
    }
    select {
    case <-s.ch:
    default:
    }
    select {
    case s.ch <- b:
    default:
    }
}

// Service manages games, schedules computer replies and fans out updates.
type Service struct {
    mu     sync.Mutex
    games  map[string]*GameState
    subs   map[string]map[*subscriber]struct{}
    render func(GameState) []byte

    selector          MoveSelector
    delay             time.Duration
    schedule          func(time.Duration, func())
    newID             func() string
    log               zerolog.Logger
    defaultDifficulty ai.Difficulty
}

func noRender(GameState) []byte { return nil }

// NewService creates a service. Without options the computer plays through a
// clock-seeded selector after DefaultThinkDelay.
func NewService(opts ...Option) *Service {
    s := &Service{
        games:             make(map[string]*GameState),
        subs:              make(map[string]map[*subscriber]struct{}),
        render:            noRender,
        selector:          ai.NewSelector(nil),
        delay:             DefaultThinkDelay,
        schedule:          afterFunc,
        newID:             uuid.NewString,
        log:               zerolog.Nop(),
        defaultDifficulty: ai.Unbeatable,
    }
    for _, opt := range opts {
        opt(s)
    }
    return s
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte, opts ...Option) *Service {
    return NewService(append([]Option{WithRenderer(renderer)}, opts...)...)
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = noRender
        return
    }
    s.render = renderer
}

// DefaultDifficulty is the level new games get when none is chosen.
func (s *Service) DefaultDifficulty() ai.Difficulty { return s.defaultDifficulty }

// CreateGame creates and registers a new game with the human to move.
func (s *Service) CreateGame(d ai.Difficulty) (*GameState, error) {
    if !d.Valid() {
        d = s.defaultDifficulty
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    id := s.newID()
    if _, dup := s.games[id]; dup {
        return nil, fmt.Errorf("create game: duplicate id %q", id)
    }
    now := time.Now()
    gs := &GameState{
        ID:         id,
        Game:       domain.New(),
        Difficulty: d,
        Phase:      PhaseHumanTurn,
        LastMove:   -1,
        Created:    now,
        Updated:    now,
    }
    s.games[id] = gs
    s.log.Info().Str("gameID", id).Str("difficulty", string(d)).Msg("game created")
    cp := *gs
    return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    gs, ok := s.games[id]
    if !ok {
        return nil, false
    }
    cp := *gs
    return &cp, true
}

// Play applies the human's move at row r, column c and, unless the game is
// over, schedules the computer's reply.
func (s *Service) Play(id string, r, c int) (*GameState, error) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    switch gs.Phase {
    case PhaseComputerThinking:
        s.mu.Unlock()
        return nil, ErrNotYourTurn
    case PhaseGameOver:
        s.mu.Unlock()
        return nil, domain.ErrGameOver
    }
    if err := gs.Game.Play(r, c); err != nil {
        s.mu.Unlock()
        return nil, err
    }
    gs.LastMove = -1
    s.advanceLocked(gs)
    cp, subs, payload := s.snapshotLocked(gs)
    s.mu.Unlock()

    s.fanOut(subs, payload)
    if cp.Phase == PhaseComputerThinking {
        round := cp.Round
        s.schedule(s.delay, func() { s.computerMove(id, round) })
    }
    return &cp, nil
}

// computerMove runs the selector on a snapshot outside the lock and applies
// the result only if the round is still the one that asked for it.
func (s *Service) computerMove(id string, round int) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok || gs.Round != round || gs.Phase != PhaseComputerThinking {
        s.mu.Unlock()
        return
    }
    board, d := gs.Game.Board, gs.Difficulty
    s.mu.Unlock()

    start := time.Now()
    choice := s.selector.Choose(board, d)

    s.mu.Lock()
    gs, ok = s.games[id]
    if !ok || gs.Round != round || gs.Phase != PhaseComputerThinking || gs.Game.Board != board {
        s.mu.Unlock()
        s.log.Debug().Str("gameID", id).Int("round", round).Msg("discarding stale computer move")
        return
    }
    if err := gs.Game.PlayIndex(choice.Move); err != nil {
        s.mu.Unlock()
        s.log.Error().Err(err).Str("gameID", id).Int("move", choice.Move).Str("board", board.String()).Msg("computer move rejected")
        return
    }
    gs.LastMove = choice.Move
    s.advanceLocked(gs)
    _, subs, payload := s.snapshotLocked(gs)
    s.mu.Unlock()

    s.log.Debug().
        Str("gameID", id).
        Str("difficulty", string(d)).
        Str("strategy", string(choice.Strategy)).
        Int("move", choice.Move).
        Int("nodes", choice.Nodes).
        Dur("took", time.Since(start)).
        Msg("computer moved")
    s.fanOut(subs, payload)
}

// advanceLocked sets the phase after a move and tallies a finished game.
func (s *Service) advanceLocked(gs *GameState) {
    gs.Updated = time.Now()
    if !gs.Game.Over {
        if gs.Game.Turn == ai.Computer {
            gs.Phase = PhaseComputerThinking
        } else {
            gs.Phase = PhaseHumanTurn
        }
        return
    }
    gs.Phase = PhaseGameOver
    result := "draw"
    switch gs.Game.Winner {
    case ai.Human:
        gs.Scores.Player++
        result = "player"
    case ai.Computer:
        gs.Scores.Computer++
        result = "computer"
    default:
        gs.Scores.Draws++
    }
    s.log.Info().
        Str("gameID", gs.ID).
        Str("winner", result).
        Str("board", gs.Game.Board.String()).
        Int("moves", gs.Game.Moves).
        Msg("game over")
}

// SetDifficulty switches the level and starts a fresh round.
func (s *Service) SetDifficulty(id string, d ai.Difficulty) (*GameState, error) {
    if !d.Valid() {
        return nil, fmt.Errorf("%w: %q", ai.ErrUnknownDifficulty, d)
    }
    return s.update(id, func(gs *GameState) {
        gs.Difficulty = d
        s.newRoundLocked(gs)
    })
}

// Reset starts a new round and keeps the scores.
func (s *Service) Reset(id string) (*GameState, error) {
    return s.update(id, s.newRoundLocked)
}

// ResetScores clears the tally and starts a new round.
func (s *Service) ResetScores(id string) (*GameState, error) {
    return s.update(id, func(gs *GameState) {
        gs.Scores = Scores{}
        s.newRoundLocked(gs)
    })
}

func (s *Service) newRoundLocked(gs *GameState) {
    gs.Game = domain.New()
    gs.Phase = PhaseHumanTurn
    gs.LastMove = -1
    gs.Round++
    gs.Updated = time.Now()
}

func (s *Service) update(id string, fn func(*GameState)) (*GameState, error) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    fn(gs)
    cp, subs, payload := s.snapshotLocked(gs)
    s.mu.Unlock()

    s.fanOut(subs, payload)
    return &cp, nil
}

// Prune drops games idle for longer than maxIdle and closes their subscribers.
func (s *Service) Prune(maxIdle time.Duration) int {
    cutoff := time.Now().Add(-maxIdle)
    var closing []*subscriber
    s.mu.Lock()
    n := 0
    for id, gs := range s.games {
        if gs.Updated.After(cutoff) {
            continue
        }
        delete(s.games, id)
        for sub := range s.subs[id] {
            closing = append(closing, sub)
        }
        delete(s.subs, id)
        n++
    }
    s.mu.Unlock()
    for _, sub := range closing {
        sub.close()
    }
    if n > 0 {
        s.log.Info().Int("pruned", n).Msg("pruned idle games")
    }
    return n
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
// The channel is closed right away when the game does not exist.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.games[id]; !ok {
        ch := make(chan []byte)
        close(ch)
        return ch, func() {}
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan []byte, 1)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub
}

func (s *Service) snapshotLocked(gs *GameState) (GameState, map[*subscriber]struct{}, []byte) {
    cp := *gs
    return cp, s.copySubsLocked(gs.ID), s.render(cp)
}

// fanOut delivers payload to every subscriber without blocking.
func (s *Service) fanOut(subs map[*subscriber]struct{}, payload []byte) {
    for sub := range subs {
        sub.send(payload)
    }
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
    out := make(map[*subscriber]struct{})
    if set, ok := s.subs[id]; ok {
        for k := range set {
            out[k] = struct{}{}
        }
    }
    return out
}
