package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores player records in a "players" collection keyed by username.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection("players")}
}

func (m *Mongo) FindByUsername(ctx context.Context, username string) (Player, error) {
	var p Player
	err := m.coll.FindOne(ctx, bson.M{"username": username}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, err
	}
	return p, nil
}

func (m *Mongo) Insert(ctx context.Context, p Player) error {
	_, err := m.coll.InsertOne(ctx, p)
	return err
}

func (m *Mongo) RecordResult(ctx context.Context, username string, newRank int, rankName string, won bool) error {
	inc := bson.M{"losses": 1}
	if won {
		inc = bson.M{"wins": 1}
	}
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{
			"$set": bson.M{"rank": newRank, "rank_name": rankName},
			"$inc": inc,
		},
	)
	return err
}

func (m *Mongo) Leaderboard(ctx context.Context, limit int) ([]Player, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rank", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var players []Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, err
	}
	return players, nil
}
