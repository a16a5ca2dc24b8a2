package web

import (
    "bytes"
    "html/template"
    "net/http"
    "time"

    "github.com/jaminalder/ai-tic-tac-toe/internal/ai"
    "github.com/jaminalder/ai-tic-tac-toe/internal/app"
    "github.com/jaminalder/ai-tic-tac-toe/internal/domain"
)

type templates struct {
    base  *template.Template
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "cellSymbol": func(c domain.Cell) string {
            switch c {
            case domain.X:
                return "X"
            case domain.O:
                return "O"
            default:
                return ""
            }
        },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>AI Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
<style>
.row{display:flex}.cell button{width:4em;height:4em;font-size:1.5em}
.win button{background:#f5b041}.x{color:#3498db}.o{color:#e84393}
.level.active{font-weight:bold}
</style>
</head><body>{{template "content" .}}</body></html>`))
    // Define the board template within the same set so game can include it
    template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>AI Tic-Tac-Toe</h1>
<form action="/game" method="post">
  {{range .Levels}}
  <label class="level"><input type="radio" name="difficulty" value="{{.Value}}"{{if .Active}} checked{{end}}> {{.Title}}</label>
  {{end}}
  <button>New Game</button>
</form>`))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>AI Tic-Tac-Toe</h1>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  {{template "board" .Board}}
</div>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const boardTemplate = `
<div id="board" sse-swap="board" hx-swap="outerHTML" data-phase="{{.Phase}}">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="scores">You: {{.Scores.Player}} | AI: {{.Scores.Computer}} | Draws: {{.Scores.Draws}}</div>
  <div class="levels">
    {{range .Levels}}
    <form hx-post="/game/{{$.ID}}/difficulty" hx-target="#board" hx-swap="outerHTML" method="post" style="display:inline">
      <input type="hidden" name="difficulty" value="{{.Value}}">
      <button class="level{{if .Active}} active{{end}}">{{.Title}}</button>
    </form>
    {{end}}
  </div>
  {{range .Rows}}
  <div class="row">
    {{range .}}
      <form class="cell{{if .Win}} win{{end}}" hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{.Row}}">
        <input type="hidden" name="c" value="{{.Col}}">
        <button type="submit" class="{{.Class}}"{{if $.Locked}} disabled{{end}}>{{cellSymbol .Mark}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  {{if .Status}}<div class="status">{{.Status}}</div>{{end}}
  <form hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post" style="display:inline"><button>New Game</button></form>
  <form hx-post="/game/{{.ID}}/reset-scores" hx-target="#board" hx-swap="outerHTML" method="post" style="display:inline"><button>Reset Scores</button></form>
</div>
`

type levelView struct {
    Value  ai.Difficulty
    Title  string
    Active bool
}

type cellView struct {
    Row, Col int
    Mark     domain.Cell
    Win      bool
    Class    string
}

type boardView struct {
    ID     string
    Phase  app.Phase
    Rows   [3][3]cellView
    Locked bool
    Status string
    Error  string
    Scores app.Scores
    Levels []levelView
}

func levels(active ai.Difficulty) []levelView {
    out := make([]levelView, 0, 3)
    for _, d := range ai.Difficulties() {
        out = append(out, levelView{Value: d, Title: d.Title(), Active: d == active})
    }
    return out
}

func statusText(gs app.GameState) string {
    switch gs.Phase {
    case app.PhaseComputerThinking:
        return "AI is thinking..."
    case app.PhaseGameOver:
        switch gs.Game.Winner {
        case ai.Human:
            return "You Win!"
        case ai.Computer:
            return "AI Wins!"
        }
        return "It's a Draw!"
    }
    return ""
}

func newBoardView(gs app.GameState, errMsg string) boardView {
    v := boardView{
        ID:     gs.ID,
        Phase:  gs.Phase,
        Locked: gs.Phase != app.PhaseHumanTurn,
        Status: statusText(gs),
        Error:  errMsg,
        Scores: gs.Scores,
        Levels: levels(gs.Difficulty),
    }
    for i, m := range gs.Game.Board {
        class := ""
        switch m {
        case domain.X:
            class = "x"
        case domain.O:
            class = "o"
        }
        v.Rows[i/3][i%3] = cellView{Row: i / 3, Col: i % 3, Mark: m, Win: gs.Game.Outcome.Contains(i), Class: class}
    }
    return v
}

const difficultyCookie = "difficulty"

// preferredDifficulty reads the last chosen level from the cookie.
func preferredDifficulty(r *http.Request, fallback ai.Difficulty) ai.Difficulty {
    if c, err := r.Cookie(difficultyCookie); err == nil && c.Value != "" {
        if d, err := ai.ParseDifficulty(c.Value); err == nil {
            return d
        }
    }
    return fallback
}

func rememberDifficulty(w http.ResponseWriter, d ai.Difficulty) {
    http.SetCookie(w, &http.Cookie{
        Name:    difficultyCookie,
        Value:   string(d),
        Path:    "/",
        Expires: time.Now().Add(365 * 24 * time.Hour),
    })
}
