package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
    "github.com/jaminalder/ai-tic-tac-toe/internal/app"
)

// Option configures the HTTP server.
type Option func(*handlers)

// WithLogger sets the request and handler logger.
func WithLogger(l zerolog.Logger) Option {
    return func(h *handlers) { h.log = l }
}

// WithMoveSelector sets the selector behind POST /api/move.
func WithMoveSelector(sel app.MoveSelector) Option {
    return func(h *handlers) {
        if sel != nil {
            h.sel = sel
        }
    }
}

// NewServer wires routes and returns an http.Handler. It installs the board
// renderer on s so SSE subscribers receive HTML fragments.
func NewServer(s *app.Service, opts ...Option) http.Handler {
    h := &handlers{svc: s, sel: ai.NewSelector(nil), tpl: loadTemplates(), log: zerolog.Nop()}
    for _, opt := range opts {
        opt(h)
    }
    s.SetRenderer(h.renderForBroadcast)

    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(requestLogger(h.log))
    r.Use(middleware.Recoverer)

    r.Get("/", h.index)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/play", h.play)
        r.Post("/difficulty", h.difficulty)
        r.Post("/reset", h.reset)
        r.Post("/reset-scores", h.resetScores)
        r.Get("/state", h.state)
        r.Get("/events", h.events)
        r.Get("/ws", h.stream)
    })
    r.Post("/api/move", h.move)
    return r
}

// requestLogger logs method, path, status, bytes and duration per request.
func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            start := time.Now()
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            next.ServeHTTP(ww, r)
            l.Info().
                Str("reqID", middleware.GetReqID(r.Context())).
                Str("method", r.Method).
                Str("path", r.URL.Path).
                Int("status", ww.Status()).
                Int("bytes", ww.BytesWritten()).
                Dur("dur", time.Since(start)).
                Msg("http")
        })
    }
}
