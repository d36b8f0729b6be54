// Package match runs one live duel as an actor: a single goroutine owns the
// engine state, and keystrokes, timer ticks, and disconnect notices all
// arrive as inbox messages. Status is re-validated inside the loop for every
// message, so a timer firing against an already-ended match is a no-op.
package match

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/keyduel/keyduel-backend/internal/engine"
	"github.com/keyduel/keyduel-backend/internal/rank"
	"github.com/keyduel/keyduel-backend/internal/store"
	"github.com/keyduel/keyduel-backend/internal/types"
)

type Msg interface{ isMatchMsg() }

type Keystroke struct {
	Username string
	Typed    string
}

// PlayerGone reports a participant's connection is gone, for any reason.
type PlayerGone struct{ Username string }

// GetView reflects internal state without data races. Test-only.
type GetView struct{ Reply chan View }

type countdownTick struct{ count int }
type beginActive struct{}
type timeExpired struct{}

func (Keystroke) isMatchMsg()     {}
func (PlayerGone) isMatchMsg()    {}
func (GetView) isMatchMsg()       {}
func (countdownTick) isMatchMsg() {}
func (beginActive) isMatchMsg()   {}
func (timeExpired) isMatchMsg()   {}

type View struct {
	State      engine.State
	NumClients int
	Ended      bool
}

// Config carries the timer tuning so tests can run matches in milliseconds.
type Config struct {
	CountdownTicks int
	TickInterval   time.Duration
	Duration       time.Duration
}

func DefaultConfig() Config {
	return Config{
		CountdownTicks: 3,
		TickInterval:   time.Second,
		Duration:       60 * time.Second,
	}
}

type Match struct {
	id      string
	inbox   chan Msg
	state   engine.State
	clients map[string]chan<- types.ServerEvent
	store   store.PlayerStore
	cfg     Config
	log     *zap.Logger
	onEnd   func(id string)
	ended   bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New starts the match actor and its countdown. onEnd is invoked exactly once
// after results are dispatched, on its own goroutine so the registry can be
// mid-send to this match without deadlocking.
func New(parent context.Context, id string, st engine.State, clients map[string]chan<- types.ServerEvent, ps store.PlayerStore, cfg Config, log *zap.Logger, onEnd func(id string)) *Match {
	ctx, cancel := context.WithCancel(parent)

	m := &Match{
		id:      id,
		inbox:   make(chan Msg, 64),
		state:   st,
		clients: clients,
		store:   ps,
		cfg:     cfg,
		log:     log.With(zap.String("match_id", id)),
		onEnd:   onEnd,
		ctx:     ctx,
		cancel:  cancel,
	}

	go m.loop()
	go m.runCountdown()
	return m
}

func (m *Match) ID() string          { return m.id }
func (m *Match) Inbox() chan<- Msg   { return m.inbox }
func (m *Match) Done() <-chan struct{} { return m.ctx.Done() }

func (m *Match) loop() {
	for {
		select {
		case <-m.ctx.Done():
			return

		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case countdownTick:
				if m.state.Status != engine.StatusCountdown {
					break
				}
				m.broadcast(types.NewCountdown(msg.count))

			case beginActive:
				m.handleBegin()

			case timeExpired:
				m.handleCommand(engine.Command{Type: engine.CmdExpire})

			case Keystroke:
				m.handleCommand(engine.Command{Type: engine.CmdKeystroke, Username: msg.Username, Typed: msg.Typed})

			case PlayerGone:
				// Stop addressing the gone player, then forfeit on their
				// behalf. In countdown or active this ends the match.
				delete(m.clients, msg.Username)
				m.handleCommand(engine.Command{Type: engine.CmdForfeit, Username: msg.Username})

			case GetView:
				msg.Reply <- View{State: m.state, NumClients: len(m.clients), Ended: m.ended}
			}
		}
	}
}

// runCountdown emits 3..1 a tick apart, then promotes the match to active.
// Aborts silently if the match went away first.
func (m *Match) runCountdown() {
	t := time.NewTimer(0)
	defer t.Stop()
	<-t.C

	for i := m.cfg.CountdownTicks; i > 0; i-- {
		m.send(countdownTick{count: i})

		t.Reset(m.cfg.TickInterval)
		select {
		case <-t.C:
		case <-m.ctx.Done():
			return
		}
	}
	m.send(beginActive{})
}

func (m *Match) runDuration() {
	select {
	case <-time.After(m.cfg.Duration):
		m.send(timeExpired{})
	case <-m.ctx.Done():
	}
}

func (m *Match) send(msg Msg) {
	select {
	case m.inbox <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Match) handleBegin() {
	_, ns, err := engine.Apply(m.state, engine.Command{Type: engine.CmdBegin})
	if err != nil {
		return
	}
	ns.StartTime = time.Now()
	m.state = ns

	m.broadcast(types.NewMatchStarted())
	m.log.Info("match active",
		zap.String("player1", m.state.Order[0]),
		zap.String("player2", m.state.Order[1]))

	go m.runDuration()
}

// handleCommand is the single mutation path for keystrokes, expiry, and
// forfeits. Engine errors mean the command arrived in the wrong state and are
// silently dropped. Ordering per keystroke is fixed: targeted events, then
// the snapshot to both, then termination if the command ended the match.
func (m *Match) handleCommand(cmd engine.Command) {
	events, ns, err := engine.Apply(m.state, cmd)
	if err != nil {
		return
	}
	m.state = ns

	var endedEvt *engine.Event
	for i := range events {
		ev := events[i]
		switch ev.Type {
		case engine.EvtShieldGained:
			m.sendTo(ev.To, types.NewShieldGained(ev.Shields))
		case engine.EvtShieldBlocked:
			m.sendTo(ev.To, types.NewShieldBlocked(ev.Shields))
		case engine.EvtDamageTaken:
			m.sendTo(ev.To, types.NewDamageTaken(ev.Damage, ev.HP))
		case engine.EvtAttackSent:
			m.sendTo(ev.To, types.NewAttackSent(ev.Damage))
		case engine.EvtMatchEnded:
			endedEvt = &ev
		}
	}

	if cmd.Type == engine.CmdKeystroke {
		m.broadcastState()
	}

	if endedEvt != nil {
		m.finish(endedEvt.Winner, endedEvt.Reason)
	}
}

// finish runs the termination effects once: rank math, persistence,
// personalized results, then teardown. Re-entry is impossible because the
// engine refuses commands on an ended match, but the flag keeps the guarantee
// local too.
func (m *Match) finish(winner string, reason engine.Reason) {
	if m.ended {
		return
	}
	m.ended = true

	loser := m.state.Order[0]
	if loser == winner {
		loser = m.state.Order[1]
	}

	winnerState := m.state.Players[winner]
	loserState := m.state.Players[loser]

	winnerDelta, loserDelta := rank.Deltas(winnerState.Accuracy(), reason == engine.ReasonDisconnect)

	winnerRank, winnerTier := m.settle(winner, winnerDelta, true)
	loserRank, loserTier := m.settle(loser, loserDelta, false)

	m.sendTo(winner, types.NewMatchEnded("victory", string(reason), winnerDelta, winnerRank, winnerTier,
		round1(winnerState.Accuracy()), winnerState.HP))
	m.sendTo(loser, types.NewMatchEnded("defeat", string(reason), loserDelta, loserRank, loserTier,
		round1(loserState.Accuracy()), loserState.HP))

	m.log.Info("match ended",
		zap.String("winner", winner),
		zap.String("reason", string(reason)))

	m.cancel()
	go m.onEnd(m.id)
}

// settle applies a rank delta against the store. Store trouble never blocks
// termination: an unknown or unreachable record reports the default rank and
// skips the write.
func (m *Match) settle(username string, delta int, won bool) (newRank int, tier string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rec, err := m.store.FindByUsername(ctx, username)
	if err != nil {
		if err != store.ErrNotFound {
			m.log.Warn("rank lookup failed", zap.String("username", username), zap.Error(err))
		}
		return rank.DefaultRank, rank.TierName(rank.DefaultRank)
	}

	newRank = rank.Apply(rec.Rank, delta)
	tier = rank.TierName(newRank)
	if err := m.store.RecordResult(ctx, username, newRank, tier, won); err != nil {
		m.log.Warn("rank update failed", zap.String("username", username), zap.Error(err))
	}
	return newRank, tier
}

func (m *Match) broadcastState() {
	for username := range m.clients {
		self := m.state.Players[username]
		opp, ok := m.state.Opponent(username)
		if !ok {
			continue
		}
		m.sendTo(username, types.NewGameState(view(self), view(opp)))
	}
}

func (m *Match) broadcast(ev types.ServerEvent) {
	for username := range m.clients {
		m.sendTo(username, ev)
	}
}

// sendTo never blocks the actor. A full outbox means the client stopped
// draining; that is a transport failure and gets disconnect semantics.
func (m *Match) sendTo(username string, ev types.ServerEvent) {
	ch, ok := m.clients[username]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
		m.log.Warn("outbox full, treating as disconnect", zap.String("username", username))
		delete(m.clients, username)
		go m.send(PlayerGone{Username: username})
	}
}

func view(p engine.PlayerState) types.PlayerView {
	return types.PlayerView{
		HP:       p.HP,
		Shields:  p.Shields,
		Combo:    p.Combo,
		Accuracy: round1(p.Accuracy()),
		Typed:    p.Typed,
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
