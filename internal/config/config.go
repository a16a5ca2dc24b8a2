// Package config reads server settings from flags, falling back to the
// environment.
package config

import (
    "errors"
    "flag"
    "fmt"
    "io"
    "strconv"
    "time"

    "github.com/rs/zerolog"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
)

// Errors returned by Load for values that parse but are not allowed.
var (
    ErrLogFormat  = errors.New("log format must be json or console")
    ErrThinkDelay = errors.New("think delay must not be negative")
)

// Config holds the settings for cmd/tictactoe.
type Config struct {
    Addr       string
    ThinkDelay time.Duration
    Difficulty ai.Difficulty
    LogLevel   zerolog.Level
    LogFormat  string
    // Logging mirrors output to LogFile when set.
    Logging bool
    LogFile string
}

// Load parses args (without the program name). Each flag defaults to its
// environment variable when that is set.
func Load(args []string, getenv func(string) string) (Config, error) {
    env := func(key, def string) string {
        if v := getenv(key); v != "" {
            return v
        }
        return def
    }

    fs := flag.NewFlagSet("tictactoe", flag.ContinueOnError)
    fs.SetOutput(io.Discard)
    addr := fs.String("addr", env("TTT_ADDR", ":8080"), "listen address")
    delay := fs.String("think-delay", env("TTT_THINK_DELAY", "500ms"), "pause before the computer moves")
    difficulty := fs.String("difficulty", env("TTT_DIFFICULTY", string(ai.Unbeatable)), "default difficulty for new games")
    level := fs.String("log-level", env("TTT_LOG_LEVEL", "info"), "log level")
    format := fs.String("log-format", env("TTT_LOG_FORMAT", "json"), "log format: json or console")
    logDefault, err := strconv.ParseBool(env("LOGGING", "false"))
    if err != nil {
        return Config{}, fmt.Errorf("LOGGING: %w", err)
    }
    logging := fs.Bool("logging", logDefault, "also write logs to the log file")
    logFile := fs.String("log-file", env("TTT_LOG_FILE", "tictactoe.log"), "log file used when logging is enabled")
    if err := fs.Parse(args); err != nil {
        return Config{}, err
    }

    cfg := Config{Addr: *addr, LogFormat: *format, Logging: *logging, LogFile: *logFile}
    if cfg.ThinkDelay, err = time.ParseDuration(*delay); err != nil {
        return Config{}, fmt.Errorf("think delay %q: %w", *delay, err)
    }
    if cfg.ThinkDelay < 0 {
        return Config{}, ErrThinkDelay
    }
    if cfg.Difficulty, err = ai.ParseDifficulty(*difficulty); err != nil {
        return Config{}, err
    }
    if cfg.LogLevel, err = zerolog.ParseLevel(*level); err != nil {
        return Config{}, fmt.Errorf("log level: %w", err)
    }
    if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
        return Config{}, fmt.Errorf("%w: %q", ErrLogFormat, cfg.LogFormat)
    }
    return cfg, nil
}
