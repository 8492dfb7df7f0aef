package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// KeywordsCollection holds one document per extracted keyword.
const KeywordsCollection = "keywords"

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := CreateIndexes(ctx, client.Database(cfg.DBName)); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

// CreateIndexes is idempotent; the unique keyword_id index is what turns a
// colliding id into a duplicate-key error instead of a silent second document.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	keywordIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "keyword_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("keyword_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "videocall_id", Value: 1}},
			Options: options.Index().SetName("videocall_id"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("date_desc"),
		},
	}

	_, err := db.Collection(KeywordsCollection).Indexes().CreateMany(ctx, keywordIndexes)
	return err
}
