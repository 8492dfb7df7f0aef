package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/migrate <command>")
		fmt.Println("Commands:")
		fmt.Println("  up       - Prepare the schema of the configured store (SQL migrations or Mongo indexes)")
		fmt.Println("  verify   - Connect to the configured store and report the keyword count")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch command {
	case "up":
		if err := migrateUp(ctx, cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migration completed successfully!")

	case "verify":
		if err := verify(ctx, cfg); err != nil {
			log.Fatalf("Verification failed: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func migrateUp(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		fmt.Println("Applying SQL migrations...")
		return store.MigratePostgres(cfg.PostgresURL())

	case config.StoreMongo:
		fmt.Println("Creating MongoDB indexes...")
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)
		return nil

	default:
		return fmt.Errorf("store driver %q has no schema", cfg.StoreDriver)
	}
}

func verify(ctx context.Context, cfg *config.Config) error {
	fmt.Println("Verifying keyword store...")

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}

	fmt.Printf("Store %s is reachable, %d keyword records\n", cfg.StoreDriver, n)
	return nil
}
