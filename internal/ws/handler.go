package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/keyduel/keyduel-backend/internal/hub"
	"github.com/keyduel/keyduel-backend/internal/types"
)

const outboxSize = 32

// Handler upgrades /ws/{username} and bridges the connection to the hub: a
// writer goroutine drains the player's outbox, the reader loop turns inbound
// JSON into hub messages. Any read or write failure unregisters the player,
// which forfeits a live match.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		if username == "" {
			http.Error(w, "missing username", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // browser clients on other origins; auth is out of scope
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan types.ServerEvent, outboxSize)
		h.Inbox() <- hub.Register{Username: username, Outbox: out}
		defer func() { h.Inbox() <- hub.Unregister{Username: username, Outbox: out} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case ev := <-out:
					payload, err := json.Marshal(ev)
					if err != nil {
						log.Error("marshal event", zap.Error(err))
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					werr := conn.Write(ctx, websocket.MessageText, payload)
					cancel()
					if werr != nil {
						// Reader will fail too and unregister via the defer.
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				// Malformed inbound traffic is never surfaced.
				log.Debug("bad client message", zap.String("username", username), zap.Error(err))
				continue
			}

			switch cm.Action {
			case types.ActionJoinQueue:
				h.Inbox() <- hub.JoinQueue{Username: username}
			case types.ActionKeystroke:
				h.Inbox() <- hub.Keystroke{Username: username, Typed: cm.Typed}
			case types.ActionLeaveQueue:
				h.Inbox() <- hub.LeaveQueue{Username: username}
			default:
				log.Debug("unknown action", zap.String("username", username), zap.String("action", cm.Action))
			}
		}
	}
}
