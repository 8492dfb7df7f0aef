package store

import (
	"context"
	"fmt"
	"time"

	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore writes each batch inside a multi-document transaction, so the
// server must run as a replica set.
type MongoStore struct {
	client   *mongo.Client
	keywords *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{
		client:   client,
		keywords: client.Database(dbName).Collection(config.KeywordsCollection),
	}
}

func (s *MongoStore) Insert(ctx context.Context, kw *models.Keyword) (string, error) {
	return insertOne(ctx, s, kw)
}

func (s *MongoStore) InsertBatch(ctx context.Context, kws []*models.Keyword) error {
	if len(kws) == 0 {
		return nil
	}
	if err := prepareBatch(kws); err != nil {
		return err
	}

	// BSON dates carry millisecond precision; truncate so the returned records
	// compare equal to what a later read decodes.
	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]interface{}, len(kws))
	for i, kw := range kws {
		kw.CreatedAt = now
		docs[i] = kw
	}

	session, err := s.client.StartSession()
	if err != nil {
		return storageError("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return s.keywords.InsertMany(sc, docs)
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert keywords: %w", ErrDuplicateID)
		}
		return storageError("insert keywords", err)
	}
	return nil
}

func (s *MongoStore) FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error) {
	if len(callIDs) == 0 {
		return []models.Keyword{}, nil
	}

	filter := bson.M{"videocall_id": bson.M{"$in": callIDs}}
	// _id order follows insertion order closely enough for a stable arrival order.
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.keywords.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageError("find keywords", err)
	}
	defer cursor.Close(ctx)

	out := []models.Keyword{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, storageError("decode keywords", err)
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.keywords.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storageError("count keywords", err)
	}
	return n, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return storageError("ping mongo", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
