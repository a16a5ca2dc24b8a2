package web

import (
    "context"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
)

const (
    wsWriteWait  = 10 * time.Second
    wsPongWait   = 60 * time.Second
    wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
}

// stream pushes the JSON game state on connect and after every change.
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        h.log.Error().Err(err).Str("gameID", id).Msg("websocket upgrade error")
        return
    }
    defer conn.Close()

    ctx, cancel := context.WithCancel(r.Context())
    defer cancel()
    ch, unsub := h.svc.Subscribe(ctx, id)
    defer unsub()

    // Reads only serve to notice the client going away.
    conn.SetReadLimit(512)
    _ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
    conn.SetPongHandler(func(string) error {
        return conn.SetReadDeadline(time.Now().Add(wsPongWait))
    })
    go func() {
        defer cancel()
        for {
            if _, _, err := conn.ReadMessage(); err != nil {
                return
            }
        }
    }()

    h.log.Info().Str("gameID", id).Msg("websocket connected")
    if !h.sendState(conn, id) {
        return
    }
    ticker := time.NewTicker(wsPingPeriod)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            h.log.Info().Str("gameID", id).Msg("websocket closed")
            return
        case <-ticker.C:
            _ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
            if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        case _, ok := <-ch:
            if !ok {
                _ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed"))
                return
            }
            if !h.sendState(conn, id) {
                return
            }
        }
    }
}

func (h *handlers) sendState(conn *websocket.Conn, id string) bool {
    gs, ok := h.svc.Get(id)
    if !ok {
        return false
    }
    _ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
    if err := conn.WriteJSON(toJSON(*gs)); err != nil {
        h.log.Error().Err(err).Str("gameID", id).Msg("error sending game state")
        return false
    }
    return true
}
