package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitdiary/internal/models"
)

// MongoStore keeps one document per (user_id, date) in health_entries.
// Dates stay ISO strings so range filters compare lexicographically.
type MongoStore struct {
	c *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection("health_entries")}
}

type mongoEntry struct {
	UserID    int       `bson:"user_id"`
	UpdatedAt time.Time `bson:"updated_at"`

	models.HealthRecord `bson:",inline"`
}

// EnsureIndexes creates the unique (user_id, date) index the upsert relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_date"),
	})
	if err != nil {
		return fmt.Errorf("create health_entries index: %w", err)
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, userID int, r models.HealthRecord) error {
	doc := mongoEntry{UserID: userID, HealthRecord: r, UpdatedAt: time.Now().UTC()}
	filter := bson.M{"user_id": userID, "date": r.Date}
	_, err := s.c.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert health entry: %w", err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, userID int, start, end string) ([]models.HealthRecord, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": start, "$lte": end},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find health entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode health entries: %w", err)
	}
	out := make([]models.HealthRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.HealthRecord)
	}
	return out, nil
}
