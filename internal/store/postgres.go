package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gamo-keyword-api/migrations"
	"gamo-keyword-api/models"
)

const uniqueViolation = "23505"

const keywordColumns = `keyword_id, keyword, weight, videocall_id, date`

// PostgresStore wraps a pgxpool connection pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore creates the pool and checks connectivity.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{Pool: pool}, nil
}

// MigratePostgres runs all embedded SQL migrations.
func MigratePostgres(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, kw *models.Keyword) (string, error) {
	return insertOne(ctx, s, kw)
}

func (s *PostgresStore) InsertBatch(ctx context.Context, kws []*models.Keyword) error {
	if len(kws) == 0 {
		return nil
	}
	if err := prepareBatch(kws); err != nil {
		return err
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageError("begin transaction", err)
	}
	// No-op once committed.
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO keywords (keyword_id, keyword, weight, videocall_id)
		VALUES ($1, $2, $3, $4)
		RETURNING date
	`
	for _, kw := range kws {
		err := tx.QueryRow(ctx, query, kw.ID, kw.Text, kw.Weight, kw.CallID).Scan(&kw.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("insert keyword %s: %w", kw.ID, ErrDuplicateID)
			}
			return storageError("insert keyword", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError("commit keywords", err)
	}
	return nil
}

func (s *PostgresStore) FindByCallIDs(ctx context.Context, callIDs []int64) ([]models.Keyword, error) {
	if len(callIDs) == 0 {
		return []models.Keyword{}, nil
	}

	query := `SELECT ` + keywordColumns + ` FROM keywords WHERE videocall_id = ANY($1) ORDER BY seq`
	rows, err := s.Pool.Query(ctx, query, callIDs)
	if err != nil {
		return nil, storageError("find keywords", err)
	}
	defer rows.Close()

	out := []models.Keyword{}
	for rows.Next() {
		var kw models.Keyword
		if err := rows.Scan(&kw.ID, &kw.Text, &kw.Weight, &kw.CallID, &kw.CreatedAt); err != nil {
			return nil, storageError("scan keyword", err)
		}
		out = append(out, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("find keywords", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM keywords`).Scan(&n); err != nil {
		return 0, storageError("count keywords", err)
	}
	return n, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.Pool.Ping(ctx); err != nil {
		return storageError("ping postgres", err)
	}
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.Pool.Close()
	return nil
}
