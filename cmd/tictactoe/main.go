package main

import (
    "context"
    "errors"
    "io"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/ai-tic-tac-toe/internal/app"
    "github.com/jaminalder/ai-tic-tac-toe/internal/config"
    "github.com/jaminalder/ai-tic-tac-toe/internal/web"
)

const (
    pruneEvery = 10 * time.Minute
    maxIdle    = 2 * time.Hour
)

func main() {
    cfg, err := config.Load(os.Args[1:], os.Getenv)
    if err != nil {
        log.Fatal().Err(err).Msg("invalid configuration")
    }
    closeLog := InitializeLogger(cfg)
    defer closeLog()

    svc := app.NewService(
        app.WithThinkDelay(cfg.ThinkDelay),
        app.WithDefaultDifficulty(cfg.Difficulty),
        app.WithLogger(log.With().Str("component", "service").Logger()),
    )
    srv := &http.Server{
        Addr:              cfg.Addr,
        Handler:           web.NewServer(svc, web.WithLogger(log.With().Str("component", "http").Logger())),
        ReadHeaderTimeout: 5 * time.Second,
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    go prune(ctx, svc)

    errc := make(chan error, 1)
    go func() {
        log.Info().Str("addr", cfg.Addr).Str("difficulty", string(cfg.Difficulty)).Msg("Starting App")
        errc <- srv.ListenAndServe()
    }()

    select {
    case err := <-errc:
        if !errors.Is(err, http.ErrServerClosed) {
            log.Error().Err(err).Msg("server failed")
        }
        return
    case <-ctx.Done():
    }

    log.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("shutdown")
    }
}

// InitializeLogger installs the global logger. With logging enabled the
// output is mirrored to the configured file; the returned func closes it.
func InitializeLogger(cfg config.Config) func() {
    var out io.Writer = os.Stdout
    if cfg.LogFormat == "console" {
        out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    }
    closer := func() {}
    if cfg.Logging {
        runLogFile, err := os.OpenFile(
            cfg.LogFile,
            os.O_APPEND|os.O_CREATE|os.O_WRONLY,
            0664,
        )
        if err != nil {
            log.Fatal().Err(err).Msg("Failed to open log file")
        }
        out = zerolog.MultiLevelWriter(runLogFile, out)
        closer = func() { _ = runLogFile.Close() }
    }
    log.Logger = zerolog.New(out).With().Timestamp().Logger()
    zerolog.SetGlobalLevel(cfg.LogLevel)
    return closer
}

func prune(ctx context.Context, svc *app.Service) {
    t := time.NewTicker(pruneEvery)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            svc.Prune(maxIdle)
        }
    }
}
