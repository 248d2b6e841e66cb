package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"fitdiary/internal/models"
)

// These tests need live servers and skip unless MONGO_URI / REDIS_ADDR are set.

func TestMongoStore_UpsertAndRange(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo.Connect() error = %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(fmt.Sprintf("fitdiary_test_%d", time.Now().UnixNano()))
	defer db.Drop(context.Background())

	s := NewMongoStore(db)
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}

	_ = s.Save(ctx, 7, models.HealthRecord{Date: "2024-05-02", Steps: 1})
	_ = s.Save(ctx, 7, models.HealthRecord{Date: "2024-05-01", Steps: 2})
	if err := s.Save(ctx, 7, models.HealthRecord{Date: "2024-05-02", Steps: 3}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Query(ctx, 7, "2024-05-01", "2024-05-02")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 || got[0].Date != "2024-05-01" || got[1].Steps != 3 {
		t.Errorf("Query() = %+v", got)
	}
}

func TestCachedStore_InvalidatesOnSave(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	userID := int(time.Now().UnixNano() % 1_000_000)
	inner := NewMemoryStore()
	s := NewCachedStore(inner, rdb, time.Minute, zap.NewNop())
	defer rdb.Del(ctx, genKey(userID))

	_ = s.Save(ctx, userID, models.HealthRecord{Date: "2024-05-01", Steps: 1})
	if got, _ := s.Query(ctx, userID, "2024-05-01", "2024-05-31"); len(got) != 1 {
		t.Fatalf("Query() len = %d, want 1", len(got))
	}

	// A write behind the cache's back is not visible until the next Save.
	_ = inner.Save(ctx, userID, models.HealthRecord{Date: "2024-05-02"})
	if got, _ := s.Query(ctx, userID, "2024-05-01", "2024-05-31"); len(got) != 1 {
		t.Errorf("Query() served %d records, want cached 1", len(got))
	}

	_ = s.Save(ctx, userID, models.HealthRecord{Date: "2024-05-03"})
	if got, _ := s.Query(ctx, userID, "2024-05-01", "2024-05-31"); len(got) != 3 {
		t.Errorf("Query() after Save len = %d, want 3", len(got))
	}
}
