package app

import (
    "time"

    "github.com/rs/zerolog"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

// DefaultThinkDelay is how long the computer "thinks" before replying.
const DefaultThinkDelay = 500 * time.Millisecond

// MoveSelector picks the computer's move.
type MoveSelector interface {
    Choose(b domain.Board, d ai.Difficulty) ai.Choice
}

// Option configures a Service.
type Option func(*Service)

// WithSelector replaces the move selector.
func WithSelector(sel MoveSelector) Option {
    return func(s *Service) {
        if sel != nil {
            s.selector = sel
        }
    }
}

// WithThinkDelay sets the pause before the computer moves.
func WithThinkDelay(d time.Duration) Option {
    return func(s *Service) { s.delay = d }
}

// WithScheduler replaces time.AfterFunc for running the computer's move.
func WithScheduler(schedule func(time.Duration, func())) Option {
    return func(s *Service) {
        if schedule != nil {
            s.schedule = schedule
        }
    }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
    return func(s *Service) { s.log = l }
}

// WithIDGenerator replaces uuid.NewString for game IDs.
func WithIDGenerator(gen func() string) Option {
    return func(s *Service) {
        if gen != nil {
            s.newID = gen
        }
    }
}

// WithRenderer sets the broadcast payload renderer.
func WithRenderer(renderer func(GameState) []byte) Option {
    return func(s *Service) {
        if renderer != nil {
            s.render = renderer
        }
    }
}

// WithDefaultDifficulty sets the level used when CreateGame gets an invalid one.
func WithDefaultDifficulty(d ai.Difficulty) Option {
    return func(s *Service) {
        if d.Valid() {
            s.defaultDifficulty = d
        }
    }
}

func afterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }
