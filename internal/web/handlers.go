package web

import (
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
    "github.com/jaminalder/ai-tic-tac-toe/internal/app"
    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

type handlers struct {
    svc *app.Service
    sel app.MoveSelector
    tpl *templates
    log zerolog.Logger
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardView(gs, errMsg))
}

func (h *handlers) writeBoard(w http.ResponseWriter, gs app.GameState, errMsg string) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write(h.renderBoard(gs, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    data := struct{ Levels []levelView }{Levels: levels(preferredDifficulty(r, h.svc.DefaultDifficulty()))}
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "", data))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    _ = r.ParseForm()
    d := preferredDifficulty(r, h.svc.DefaultDifficulty())
    if v := r.Form.Get("difficulty"); v != "" {
        parsed, err := ai.ParseDifficulty(v)
        if err != nil {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
        d = parsed
        rememberDifficulty(w, d)
    }
    gs, err := h.svc.CreateGame(d)
    if err != nil {
        h.log.Error().Err(err).Msg("create game")
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    data := struct {
        ID    string
        Board boardView
    }{ID: gs.ID, Board: newBoardView(*gs, "")}

    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    // Render page with embedded board container
    _, _ = w.Write(renderTemplate(h.tpl.game, "", data))
}

func playError(err error) string {
    switch {
    case errors.Is(err, app.ErrNotYourTurn):
        return "Wait for the AI to move"
    case errors.Is(err, domain.ErrOccupied):
        return "Cell is occupied"
    case errors.Is(err, domain.ErrOutOfBounds):
        return "Out of bounds"
    case errors.Is(err, domain.ErrGameOver):
        return "Game is over"
    case errors.Is(err, ai.ErrUnknownDifficulty):
        return "Unknown difficulty"
    default:
        return "Invalid move"
    }
}

// respond renders the board after an action, falling back to the stored state on error.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, id string, gs *app.GameState, err error) {
    var errMsg string
    if err != nil {
        if errors.Is(err, app.ErrNotFound) {
            http.NotFound(w, r)
            return
        }
        errMsg = playError(err)
        if gs == nil {
            if g, ok := h.svc.Get(id); ok {
                gs = g
            }
        }
    }
    if gs == nil {
        http.NotFound(w, r)
        return
    }
    h.writeBoard(w, *gs, errMsg)
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    _ = r.ParseForm()
    ri, errR := strconv.Atoi(r.Form.Get("r"))
    ci, errC := strconv.Atoi(r.Form.Get("c"))
    if errR != nil || errC != nil {
        h.respond(w, r, id, nil, domain.ErrOutOfBounds)
        return
    }
    gs, err := h.svc.Play(id, ri, ci)
    h.respond(w, r, id, gs, err)
}

func (h *handlers) difficulty(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    _ = r.ParseForm()
    d, err := ai.ParseDifficulty(r.Form.Get("difficulty"))
    if err != nil {
        h.respond(w, r, id, nil, err)
        return
    }
    gs, err := h.svc.SetDifficulty(id, d)
    if err == nil {
        rememberDifficulty(w, d)
    }
    h.respond(w, r, id, gs, err)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, err := h.svc.Reset(id)
    h.respond(w, r, id, gs, err)
}

func (h *handlers) resetScores(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, err := h.svc.ResetScores(id)
    h.respond(w, r, id, gs, err)
}

var heartbeatInterval = 15 * time.Second

// writeEvent frames payload as one SSE event; every line needs its own data prefix.
func writeEvent(w io.Writer, event string, payload []byte) {
    _, _ = fmt.Fprintf(w, "event: %s\n", event)
    for _, line := range strings.Split(strings.TrimRight(string(payload), "\n"), "\n") {
        _, _ = fmt.Fprintf(w, "data: %s\n", line)
    }
    _, _ = io.WriteString(w, "\n")
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    ctx := r.Context()
    ch, unsub := h.svc.Subscribe(ctx, id)
    defer unsub()
    // heartbeat ticker
    ticker := time.NewTicker(heartbeatInterval)
    defer ticker.Stop()
    // Initial flush of headers
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case b, ok := <-ch:
            if !ok {
                return
            }
            writeEvent(w, "board", b)
            flusher.Flush()
        }
    }
}

// renderForBroadcast is installed as the service renderer so SSE clients get board fragments.
func (h *handlers) renderForBroadcast(gs app.GameState) []byte {
    return h.renderBoard(gs, "")
}
