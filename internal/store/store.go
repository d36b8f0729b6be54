// Package store persists player ladder records. Live match state is never
// persisted; a crash loses in-progress matches by design.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("player not found")

type Player struct {
	Username string `bson:"username" json:"username"`
	Rank     int    `bson:"rank" json:"rank"`
	RankName string `bson:"rank_name" json:"rank_name"`
	Wins     int    `bson:"wins" json:"wins"`
	Losses   int    `bson:"losses" json:"losses"`
}

// PlayerStore is the persistence boundary the match engine consumes. The
// engine treats every error as recoverable: a match still ends and reports
// results even when the store is down.
type PlayerStore interface {
	FindByUsername(ctx context.Context, username string) (Player, error)
	Insert(ctx context.Context, p Player) error
	// RecordResult writes the post-match rank and increments wins or losses.
	RecordResult(ctx context.Context, username string, newRank int, rankName string, won bool) error
	Leaderboard(ctx context.Context, limit int) ([]Player, error)
}
