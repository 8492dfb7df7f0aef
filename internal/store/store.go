// Package store persists keyword records and looks them up by call id.
package store

import (
	"context"
	"fmt"

	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/models"
)

// Finder is the read side the agenda selector needs.
type Finder interface {
	FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error)
}

// Store is implemented by the MongoDB, PostgreSQL and in-memory backends.
//
// Insert and InsertBatch fill in ID (when empty) and CreatedAt on the records
// they are given. InsertBatch is all-or-nothing: when it returns an error no
// record of the batch is visible to readers.
type Store interface {
	Finder
	Insert(ctx context.Context, kw *models.Keyword) (string, error)
	InsertBatch(ctx context.Context, kws []*models.Keyword) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects the backend selected by STORE_DRIVER.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, cfg.DBName), nil

	case config.StorePostgres:
		connString := cfg.PostgresURL()
		if err := MigratePostgres(connString); err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, connString)

	case config.StoreMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// insertOne adapts a single-record insert onto InsertBatch.
func insertOne(ctx context.Context, s Store, kw *models.Keyword) (string, error) {
	if err := s.InsertBatch(ctx, []*models.Keyword{kw}); err != nil {
		return "", err
	}
	return kw.ID, nil
}

func prepareBatch(kws []*models.Keyword) error {
	for i, kw := range kws {
		if kw == nil {
			return fmt.Errorf("%w: record %d is nil", ErrInvalidKeyword, i)
		}
		if kw.Text == "" {
			return fmt.Errorf("%w: record %d has empty text", ErrInvalidKeyword, i)
		}
		if kw.ID == "" {
			kw.ID = NewKeywordID()
		}
	}
	return nil
}
