package session

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mardix/equiptest/internal/errs"
)

// MongoRepo stores each session aggregate as one Mongo document
// (tests, test documents and core documents embedded). Save is a single
// ReplaceOne upsert, so the commit of a reconcile pass is atomic without
// multi-document transactions.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("session %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepo) Save(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"id": s.ID}, s, opts); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}
