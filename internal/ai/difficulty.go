package ai

import (
    "errors"
    "fmt"
    "strings"
)

// Difficulty selects how the computer picks its moves.
type Difficulty string

const (
    Easy       Difficulty = "easy"
    Medium     Difficulty = "medium"
    Unbeatable Difficulty = "unbeatable"
)

// ErrUnknownDifficulty is returned by ParseDifficulty.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulties lists the levels from weakest to strongest.
func Difficulties() []Difficulty {
    return []Difficulty{Easy, Medium, Unbeatable}
}

// Valid reports whether d is a known level.
func (d Difficulty) Valid() bool {
    switch d {
    case Easy, Medium, Unbeatable:
        return true
    }
    return false
}

// Title returns the display label, e.g. "Medium".
func (d Difficulty) Title() string {
    if d == "" {
        return ""
    }
    return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// ParseDifficulty reads a level name, ignoring case and surrounding space.
func ParseDifficulty(s string) (Difficulty, error) {
    d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
    if !d.Valid() {
        return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
    }
    return d, nil
}
