package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is a map-backed PlayerStore. It backs tests and lets the server run
// without a database configured.
type Memory struct {
	mu      sync.Mutex
	players map[string]Player
}

func NewMemory() *Memory {
	return &Memory{players: make(map[string]Player)}
}

func (m *Memory) FindByUsername(_ context.Context, username string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[username]
	if !ok {
		return Player{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) Insert(_ context.Context, p Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.players[p.Username] = p
	return nil
}

func (m *Memory) RecordResult(_ context.Context, username string, newRank int, rankName string, won bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[username]
	if !ok {
		return ErrNotFound
	}
	p.Rank = newRank
	p.RankName = rankName
	if won {
		p.Wins++
	} else {
		p.Losses++
	}
	m.players[username] = p
	return nil
}

func (m *Memory) Leaderboard(_ context.Context, limit int) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Rank > players[j].Rank })

	if len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}
