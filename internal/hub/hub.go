// Package hub owns the process-wide mutable state: the matchmaking queue, the
// live-match registry, and the connection table. All of it belongs to one
// goroutine; everything else talks to it through typed inbox messages, so
// registry mutations are serialized by construction.
package hub

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keyduel/keyduel-backend/internal/engine"
	"github.com/keyduel/keyduel-backend/internal/match"
	"github.com/keyduel/keyduel-backend/internal/store"
	"github.com/keyduel/keyduel-backend/internal/textpool"
	"github.com/keyduel/keyduel-backend/internal/types"
)

type HubMsg interface{ isHubMsg() }

// Register announces a connected player and where to deliver their events.
type Register struct {
	Username string
	Outbox   chan types.ServerEvent
}

// Unregister tears a connection down. Outbox must be the channel that was
// registered; a reconnect may already have replaced it.
type Unregister struct {
	Username string
	Outbox   chan types.ServerEvent
}

type JoinQueue struct{ Username string }
type LeaveQueue struct{ Username string }

type Keystroke struct {
	Username string
	Typed    string
}

type removeMatch struct{ id string }

// GetView reflects internal state without data races. Test-only.
type GetView struct{ Reply chan View }

type Shutdown struct{}

func (Register) isHubMsg()    {}
func (Unregister) isHubMsg()  {}
func (JoinQueue) isHubMsg()   {}
func (LeaveQueue) isHubMsg()  {}
func (Keystroke) isHubMsg()   {}
func (removeMatch) isHubMsg() {}
func (GetView) isHubMsg()     {}
func (Shutdown) isHubMsg()    {}

type View struct {
	QueueSize   int
	NumMatches  int
	PlayerMatch map[string]string
}

type Hub struct {
	inbox       chan HubMsg
	queue       waitQueue
	conns       map[string]chan types.ServerEvent
	matches     map[string]*match.Match
	playerMatch map[string]string
	store       store.PlayerStore
	texts       textpool.Source
	matchCfg    match.Config
	log         *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewHub(parent context.Context, ps store.PlayerStore, texts textpool.Source, matchCfg match.Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:       make(chan HubMsg, 64),
		conns:       make(map[string]chan types.ServerEvent),
		matches:     make(map[string]*match.Match),
		playerMatch: make(map[string]string),
		store:       ps,
		texts:       texts,
		matchCfg:    matchCfg,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Register:
				h.handleRegister(msg)

			case Unregister:
				h.handleUnregister(msg)

			case JoinQueue:
				h.handleJoinQueue(msg.Username)

			case LeaveQueue:
				if h.queue.remove(msg.Username) {
					h.deliver(msg.Username, types.NewQueueLeft())
				}

			case Keystroke:
				h.routeKeystroke(msg)

			case removeMatch:
				delete(h.matches, msg.id)
				for username, id := range h.playerMatch {
					if id == msg.id {
						delete(h.playerMatch, username)
					}
				}

			case GetView:
				pm := make(map[string]string, len(h.playerMatch))
				for k, v := range h.playerMatch {
					pm[k] = v
				}
				msg.Reply <- View{QueueSize: h.queue.len(), NumMatches: len(h.matches), PlayerMatch: pm}

			case Shutdown:
				clear(h.conns)
				h.cancel()
			}
		}
	}
}

func (h *Hub) handleRegister(msg Register) {
	// A reconnect simply replaces the channel. Outboxes are never closed:
	// a match actor may still hold the old one, and its writer exits with
	// its own connection. Abandoned channels just fill up and get
	// disconnect semantics.
	h.conns[msg.Username] = msg.Outbox
	h.log.Info("player connected", zap.String("username", msg.Username))
}

// handleUnregister is the single disconnect path: it covers explicit closes,
// read errors, and write failures alike. A player mid-match forfeits.
func (h *Hub) handleUnregister(msg Unregister) {
	if cur, ok := h.conns[msg.Username]; !ok || cur != msg.Outbox {
		return
	}
	delete(h.conns, msg.Username)
	h.queue.remove(msg.Username)

	if id, ok := h.playerMatch[msg.Username]; ok {
		if m, ok := h.matches[id]; ok {
			h.forward(m, match.PlayerGone{Username: msg.Username})
		}
	}
	h.log.Info("player disconnected", zap.String("username", msg.Username))
}

// handleJoinQueue enqueues and pairs. Double-joining, or joining while in a
// match, is silently ignored.
func (h *Hub) handleJoinQueue(username string) {
	outbox, connected := h.conns[username]
	if !connected {
		return
	}
	if _, inMatch := h.playerMatch[username]; inMatch || h.queue.contains(username) {
		return
	}

	h.queue.enqueue(queueEntry{username: username, outbox: outbox})
	h.deliver(username, types.NewQueueJoined(h.queue.len()))
	h.log.Info("player queued", zap.String("username", username), zap.Int("queue_size", h.queue.len()))

	if first, second, ok := h.queue.popPair(); ok {
		h.createMatch(first, second)
	}
}

func (h *Hub) createMatch(first, second queueEntry) {
	id := uuid.New().String()
	text := h.texts.Passage(h.ctx)
	st := engine.NewState(id, text, first.username, second.username)

	h.trySend(first.outbox, types.NewMatchFound(id, second.username, text, "player1"))
	h.trySend(second.outbox, types.NewMatchFound(id, first.username, text, "player2"))

	clients := map[string]chan<- types.ServerEvent{
		first.username:  first.outbox,
		second.username: second.outbox,
	}
	m := match.New(h.ctx, id, st, clients, h.store, h.matchCfg, h.log, func(id string) {
		h.inbox <- removeMatch{id: id}
	})

	h.matches[id] = m
	h.playerMatch[first.username] = id
	h.playerMatch[second.username] = id

	h.log.Info("match created",
		zap.String("match_id", id),
		zap.String("player1", first.username),
		zap.String("player2", second.username))
}

func (h *Hub) routeKeystroke(msg Keystroke) {
	id, ok := h.playerMatch[msg.Username]
	if !ok {
		return
	}
	m, ok := h.matches[id]
	if !ok {
		return
	}
	h.forward(m, match.Keystroke{Username: msg.Username, Typed: msg.Typed})
}

// forward never blocks the hub on a match inbox. A match that stopped
// draining has ended; dropping the message is the correct outcome.
func (h *Hub) forward(m *match.Match, msg match.Msg) {
	select {
	case m.Inbox() <- msg:
	case <-m.Done():
	default:
	}
}

func (h *Hub) deliver(username string, ev types.ServerEvent) {
	if ch, ok := h.conns[username]; ok {
		h.trySend(ch, ev)
	}
}

func (h *Hub) trySend(ch chan types.ServerEvent, ev types.ServerEvent) {
	select {
	case ch <- ev:
	default:
		// Client is slow/full; the reader side will notice and unregister.
	}
}
