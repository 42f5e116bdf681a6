package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS import_events CASCADE`,
		`DROP TABLE IF EXISTS shared_links CASCADE`,
		`DROP TABLE IF EXISTS favorites CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// Authenticated favorite sets. Anonymous sets live in Redis only.
		`CREATE TABLE IF NOT EXISTS favorites (
			user_id VARCHAR(255) NOT NULL,
			poi_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, poi_id)
		)`,

		// Immutable snapshots published under a short public code. poi_ids
		// is frozen at creation; import_count is bumped by the event log.
		`CREATE TABLE IF NOT EXISTS shared_links (
			id UUID PRIMARY KEY,
			share_code VARCHAR(16) UNIQUE NOT NULL,
			owner_id VARCHAR(255),
			poi_ids TEXT[] NOT NULL,
			import_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_imported_at TIMESTAMPTZ
		)`,

		// Append-only import log. No FK to shared_links: deleting a link
		// keeps its history for the owner's stats.
		`CREATE TABLE IF NOT EXISTS import_events (
			id UUID PRIMARY KEY,
			shared_link_id UUID NOT NULL,
			imported_count INTEGER NOT NULL,
			importer_id VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shared_links_owner_id ON shared_links(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_import_events_link_id ON import_events(shared_link_id)`,
		`CREATE INDEX IF NOT EXISTS idx_import_events_created_at ON import_events(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	// A demo link with a stable code, for local frontend work
	query := `
		INSERT INTO shared_links (id, share_code, owner_id, poi_ids) VALUES
		('00000000-0000-0000-0000-000000000001', 'demo0001', 'demo-user',
		 ARRAY['poi-old-town', 'poi-harbor-walk', 'poi-night-market'])
		ON CONFLICT (share_code) DO NOTHING
	`

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed shared links: %w", err)
	}

	fmt.Println("  Seeded demo shared link")

	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
