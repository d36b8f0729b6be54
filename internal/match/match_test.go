package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/keyduel/keyduel-backend/internal/engine"
	"github.com/keyduel/keyduel-backend/internal/rank"
	"github.com/keyduel/keyduel-backend/internal/store"
	"github.com/keyduel/keyduel-backend/internal/types"
)

type fixture struct {
	m        *Match
	aliceOut chan types.ServerEvent
	bobOut   chan types.ServerEvent
	store    store.PlayerStore
	ends     chan string
}

func newFixture(t *testing.T, st engine.State, cfg Config, ps store.PlayerStore) *fixture {
	t.Helper()

	f := &fixture{
		aliceOut: make(chan types.ServerEvent, 64),
		bobOut:   make(chan types.ServerEvent, 64),
		store:    ps,
		ends:     make(chan string, 4),
	}
	clients := map[string]chan<- types.ServerEvent{
		"alice": f.aliceOut,
		"bob":   f.bobOut,
	}
	f.m = New(context.Background(), st.MatchID, st, clients, ps, cfg, zap.NewNop(),
		func(id string) { f.ends <- id })
	return f
}

func activeState(text string) engine.State {
	st := engine.NewState("m1", text, "alice", "bob")
	st.Status = engine.StatusActive
	return st
}

func seededStore(t *testing.T, ranks map[string]int) *store.Memory {
	t.Helper()
	ps := store.NewMemory()
	for name, r := range ranks {
		if err := ps.Insert(context.Background(), store.Player{Username: name, Rank: r, RankName: rank.TierName(r)}); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return ps
}

func await[T types.ServerEvent](t *testing.T, ch chan types.ServerEvent) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if want, ok := ev.(T); ok {
				return want
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestCountdownThenStart(t *testing.T) {
	st := engine.NewState("m1", "cat dog", "alice", "bob")
	cfg := Config{CountdownTicks: 3, TickInterval: 2 * time.Millisecond, Duration: time.Minute}
	f := newFixture(t, st, cfg, store.NewMemory())

	for want := 3; want >= 1; want-- {
		tick := await[types.Countdown](t, f.aliceOut)
		if tick.Count != want {
			t.Fatalf("countdown: got %d, want %d", tick.Count, want)
		}
	}
	await[types.MatchStarted](t, f.aliceOut)
	await[types.MatchStarted](t, f.bobOut)
}

func TestKeystrokeBeforeActiveIsIgnored(t *testing.T) {
	st := engine.NewState("m1", "cat dog", "alice", "bob")
	cfg := Config{CountdownTicks: 3, TickInterval: 50 * time.Millisecond, Duration: time.Minute}
	f := newFixture(t, st, cfg, store.NewMemory())

	f.m.Inbox() <- Keystroke{Username: "alice", Typed: "cat "}

	// Nothing but the countdown shows up: no snapshot, no damage.
	ev := await[types.Countdown](t, f.bobOut)
	if ev.Count != 3 {
		t.Fatalf("expected first countdown tick, got %+v", ev)
	}
	select {
	case ev := <-f.bobOut:
		if _, isTick := ev.(types.Countdown); !isTick {
			t.Fatalf("unexpected event during countdown: %#v", ev)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

func TestKeystrokeBroadcastsPersonalizedSnapshots(t *testing.T) {
	cfg := Config{CountdownTicks: 3, TickInterval: time.Minute, Duration: time.Minute}
	f := newFixture(t, activeState("cat dog"), cfg, store.NewMemory())

	f.m.Inbox() <- Keystroke{Username: "alice", Typed: "ca"}

	aliceView := await[types.GameState](t, f.aliceOut)
	if aliceView.Player.Typed != "ca" || aliceView.Player.Combo != 1 {
		t.Fatalf("alice snapshot: %+v", aliceView.Player)
	}
	if aliceView.Player.Accuracy != 100.0 {
		t.Fatalf("alice accuracy: got %v", aliceView.Player.Accuracy)
	}

	bobView := await[types.GameState](t, f.bobOut)
	if bobView.Opponent.Typed != "ca" || bobView.Player.Typed != "" {
		t.Fatalf("bob snapshot: %+v", bobView)
	}
}

func TestKnockoutTerminatesExactlyOnce(t *testing.T) {
	st := activeState("cat dog")
	bob := st.Players["bob"]
	bob.HP = 1
	st.Players["bob"] = bob

	ps := seededStore(t, map[string]int{"alice": 1000, "bob": 1000})
	cfg := Config{CountdownTicks: 3, TickInterval: time.Minute, Duration: time.Minute}
	f := newFixture(t, st, cfg, ps)

	f.m.Inbox() <- Keystroke{Username: "alice", Typed: "cat "}

	dmg := await[types.DamageTaken](t, f.bobOut)
	if dmg.HP != 0 {
		t.Fatalf("damage_taken hp: got %d", dmg.HP)
	}

	won := await[types.MatchEnded](t, f.aliceOut)
	if won.Result != "victory" || won.Reason != "ko" {
		t.Fatalf("winner payload: %+v", won)
	}
	// Accuracy 100 earns the bonus on top of the base delta.
	if won.RankChange != 30 || won.NewRank != 1030 {
		t.Fatalf("winner rank: %+v", won)
	}

	lost := await[types.MatchEnded](t, f.bobOut)
	if lost.Result != "defeat" || lost.RankChange != -15 || lost.NewRank != 985 {
		t.Fatalf("loser payload: %+v", lost)
	}

	select {
	case <-f.ends:
	case <-time.After(2 * time.Second):
		t.Fatalf("onEnd was not invoked")
	}

	// A late keystroke against the ended match must change nothing.
	f.m.Inbox() <- Keystroke{Username: "alice", Typed: "cat d"}
	time.Sleep(20 * time.Millisecond)

	alice, err := ps.FindByUsername(context.Background(), "alice")
	if err != nil || alice.Rank != 1030 || alice.Wins != 1 {
		t.Fatalf("winner record: %+v err %v", alice, err)
	}
	bobRec, err := ps.FindByUsername(context.Background(), "bob")
	if err != nil || bobRec.Rank != 985 || bobRec.Losses != 1 {
		t.Fatalf("loser record: %+v err %v", bobRec, err)
	}
	if len(f.ends) != 0 {
		t.Fatalf("termination ran twice")
	}
}

func TestDurationExpiryPicksAccuracyOnEqualHP(t *testing.T) {
	st := engine.NewState("m1", "cat dog", "alice", "bob")
	alice, bob := st.Players["alice"], st.Players["bob"]
	alice.CorrectChars, alice.TotalChars = 98, 100
	bob.CorrectChars, bob.TotalChars = 91, 100
	st.Players["alice"], st.Players["bob"] = alice, bob

	cfg := Config{CountdownTicks: 1, TickInterval: time.Millisecond, Duration: 30 * time.Millisecond}
	f := newFixture(t, st, cfg, seededStore(t, map[string]int{"alice": 1000, "bob": 1000}))

	ended := await[types.MatchEnded](t, f.aliceOut)
	if ended.Result != "victory" || ended.Reason != "time" {
		t.Fatalf("expiry payload: %+v", ended)
	}
	if ended.Accuracy != 98.0 {
		t.Fatalf("accuracy: got %v", ended.Accuracy)
	}
}

func TestDisconnectAwardsWinAndHarsherPenalty(t *testing.T) {
	ps := seededStore(t, map[string]int{"alice": 1000, "bob": 810})
	cfg := Config{CountdownTicks: 3, TickInterval: time.Minute, Duration: time.Minute}
	f := newFixture(t, activeState("cat dog"), cfg, ps)

	f.m.Inbox() <- PlayerGone{Username: "bob"}

	ended := await[types.MatchEnded](t, f.aliceOut)
	if ended.Result != "victory" || ended.Reason != "disconnect" {
		t.Fatalf("payload: %+v", ended)
	}

	select {
	case <-f.ends:
	case <-time.After(2 * time.Second):
		t.Fatalf("onEnd was not invoked")
	}

	// -30 floored at 800.
	bob, err := ps.FindByUsername(context.Background(), "bob")
	if err != nil || bob.Rank != 800 || bob.Losses != 1 {
		t.Fatalf("bob record: %+v err %v", bob, err)
	}
	if len(f.bobOut) != 0 {
		t.Fatalf("gone player must not receive events")
	}
}

type downStore struct{}

func (downStore) FindByUsername(context.Context, string) (store.Player, error) {
	return store.Player{}, errors.New("store down")
}
func (downStore) Insert(context.Context, store.Player) error { return errors.New("store down") }
func (downStore) RecordResult(context.Context, string, int, string, bool) error {
	return errors.New("store down")
}
func (downStore) Leaderboard(context.Context, int) ([]store.Player, error) {
	return nil, errors.New("store down")
}

func TestStoreFailureDoesNotBlockTermination(t *testing.T) {
	st := activeState("cat dog")
	bob := st.Players["bob"]
	bob.HP = 1
	st.Players["bob"] = bob

	cfg := Config{CountdownTicks: 3, TickInterval: time.Minute, Duration: time.Minute}
	f := newFixture(t, st, cfg, downStore{})

	f.m.Inbox() <- Keystroke{Username: "alice", Typed: "cat "}

	ended := await[types.MatchEnded](t, f.aliceOut)
	if ended.Result != "victory" {
		t.Fatalf("payload: %+v", ended)
	}
	// Results fall back to the default ladder position.
	if ended.NewRank != rank.DefaultRank || ended.RankName != "Bronze" {
		t.Fatalf("fallback rank: %+v", ended)
	}
}
