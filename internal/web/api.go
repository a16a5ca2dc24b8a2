package web

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/go-chi/chi/v5"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
    "github.com/jaminalder/ai-tic-tac-toe/internal/app"
    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

// GameStateJSON is the wire form of a session.
type GameStateJSON struct {
    ID         string        `json:"id"`
    Board      string        `json:"board"`
    Turn       string        `json:"turn"`
    Phase      app.Phase     `json:"phase"`
    Difficulty ai.Difficulty `json:"difficulty"`
    Outcome    string        `json:"outcome"`
    Winner     string        `json:"winner,omitempty"`
    Line       []int         `json:"line,omitempty"`
    LastMove   int           `json:"lastMove"`
    Scores     app.Scores    `json:"scores"`
    Round      int           `json:"round"`
}

func toJSON(gs app.GameState) GameStateJSON {
    out := GameStateJSON{
        ID:         gs.ID,
        Board:      gs.Game.Board.String(),
        Turn:       gs.Game.Turn.String(),
        Phase:      gs.Phase,
        Difficulty: gs.Difficulty,
        Outcome:    gs.Game.Outcome.Kind.String(),
        LastMove:   gs.LastMove,
        Scores:     gs.Scores,
        Round:      gs.Round,
    }
    if gs.Game.Outcome.Kind == domain.Win {
        out.Winner = gs.Game.Outcome.Winner.String()
        out.Line = gs.Game.Outcome.Line[:]
    }
    return out
}

type apiError struct {
    Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
    gs, ok := h.svc.Get(chi.URLParam(r, "id"))
    if !ok {
        writeJSON(w, http.StatusNotFound, apiError{Error: app.ErrNotFound.Error()})
        return
    }
    writeJSON(w, http.StatusOK, toJSON(*gs))
}

// MoveRequest asks for the computer's move on a board, e.g. {"board":"X...O..X.","difficulty":"medium"}.
type MoveRequest struct {
    Board      string `json:"board"`
    Difficulty string `json:"difficulty"`
}

// MoveResponse is the chosen cell as an index and as row/column.
type MoveResponse struct {
    Move       int           `json:"move"`
    Row        int           `json:"row"`
    Col        int           `json:"col"`
    Strategy   ai.Strategy   `json:"strategy"`
    Difficulty ai.Difficulty `json:"difficulty"`
}

var (
    errNotComputerTurn = errors.New("it is not O's turn")
    errTerminal        = errors.New("game already finished")
)

// parseMoveBoard enforces the move selector's preconditions.
func parseMoveBoard(s string) (domain.Board, error) {
    b, err := domain.ParseBoard(s)
    if err != nil {
        return b, err
    }
    if err := b.Validate(); err != nil {
        return b, err
    }
    if b.ToMove() != ai.Computer {
        return b, errNotComputerTurn
    }
    if domain.Evaluate(b).Terminal() {
        return b, errTerminal
    }
    return b, nil
}

func (h *handlers) move(w http.ResponseWriter, r *http.Request) {
    var req MoveRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeJSON(w, http.StatusBadRequest, apiError{Error: "error decoding JSON: " + err.Error()})
        return
    }
    b, err := parseMoveBoard(req.Board)
    switch {
    case errors.Is(err, errTerminal):
        writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
        return
    case err != nil:
        writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
        return
    }
    d, err := ai.ParseDifficulty(req.Difficulty)
    if err != nil {
        h.log.Warn().Str("difficulty", req.Difficulty).Msg("unknown difficulty, playing unbeatable")
        d = ai.Unbeatable
    }
    c := h.sel.Choose(b, d)
    h.log.Debug().
        Str("board", b.String()).
        Str("difficulty", string(d)).
        Str("strategy", string(c.Strategy)).
        Int("move", c.Move).
        Int("nodes", c.Nodes).
        Msg("move selected")
    writeJSON(w, http.StatusOK, MoveResponse{
        Move:       c.Move,
        Row:        c.Move / 3,
        Col:        c.Move % 3,
        Strategy:   c.Strategy,
        Difficulty: d,
    })
}
