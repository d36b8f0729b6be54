package textpool

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Mongo samples a passage from a collection and falls back to the static pool
// when the collection is empty or unreachable. A match must never fail to get
// a passage.
type Mongo struct {
	coll     *mongo.Collection
	fallback Static
	log      *zap.Logger
}

func NewMongo(db *mongo.Database, log *zap.Logger) *Mongo {
	return &Mongo{coll: db.Collection("passages"), log: log}
}

func (m *Mongo) Passage(ctx context.Context) string {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	}

	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		m.log.Warn("passage sample failed, using static pool", zap.Error(err))
		return m.fallback.Passage(ctx)
	}
	defer cursor.Close(ctx)

	var doc struct {
		Text string `bson:"text"`
	}
	if cursor.Next(ctx) && cursor.Decode(&doc) == nil && doc.Text != "" {
		return doc.Text
	}
	return m.fallback.Passage(ctx)
}
