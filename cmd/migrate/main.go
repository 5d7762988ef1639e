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
		fmt.Println("All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS decision_reports CASCADE`,
		`DROP TABLE IF EXISTS audit_records CASCADE`,
		`DROP TABLE IF EXISTS ballots CASCADE`,
		`DROP TABLE IF EXISTS poll_options CASCADE`,
		`DROP TABLE IF EXISTS polls CASCADE`,
		`DROP TABLE IF EXISTS voters CASCADE`,
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
		// Chamber members eligible to vote
		`CREATE TABLE IF NOT EXISTS voters (
			id VARCHAR(255) PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS polls (
			id UUID PRIMARY KEY,
			title VARCHAR(500) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			poll_type VARCHAR(20) NOT NULL,
			created_by VARCHAR(255) NOT NULL REFERENCES voters(id),
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			quorum INTEGER NOT NULL DEFAULT 0,
			require_all_eligible BOOLEAN NOT NULL DEFAULT false,
			allow_comments BOOLEAN NOT NULL DEFAULT false,
			results_public BOOLEAN NOT NULL DEFAULT false,
			completed_at TIMESTAMPTZ,
			auto_completed BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT polls_window_check CHECK (ends_at > starts_at),
			CONSTRAINT polls_quorum_check CHECK (quorum >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS poll_options (
			id UUID PRIMARY KEY,
			poll_id UUID NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
			text VARCHAR(500) NOT NULL,
			position INTEGER NOT NULL,
			UNIQUE (poll_id, text),
			UNIQUE (poll_id, position)
		)`,

		// Ballot content lives only in ciphertext. The unique pair constraint
		// is the authoritative one-ballot-per-voter guard.
		`CREATE TABLE IF NOT EXISTS ballots (
			id UUID PRIMARY KEY,
			poll_id UUID NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
			voter_id VARCHAR(255) NOT NULL REFERENCES voters(id),
			token BYTEA NOT NULL,
			token_salt BYTEA NOT NULL,
			ciphertext BYTEA NOT NULL,
			integrity_hash BYTEA NOT NULL,
			comment TEXT,
			cast_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT ballots_poll_id_voter_id_key UNIQUE (poll_id, voter_id)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_records (
			id BIGSERIAL PRIMARY KEY,
			actor_id VARCHAR(255) NOT NULL,
			action VARCHAR(50) NOT NULL,
			poll_id UUID,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS decision_reports (
			id UUID PRIMARY KEY,
			poll_id UUID REFERENCES polls(id) ON DELETE CASCADE,
			report_kind VARCHAR(30) NOT NULL,
			title VARCHAR(500) NOT NULL,
			generated_by VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			confidential BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_polls_active ON polls(active)`,
		`CREATE INDEX IF NOT EXISTS idx_polls_ends_at ON polls(ends_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_poll_options_poll_id ON poll_options(poll_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ballots_poll_id ON ballots(poll_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ballots_cast_at ON ballots(cast_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_records_poll_id ON audit_records(poll_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_records_created_at ON audit_records(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_reports_poll_id ON decision_reports(poll_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	query := `
		INSERT INTO voters (id, display_name, active) VALUES
		('member-001', 'Alice Durand', true),
		('member-002', 'Bram Vermeulen', true),
		('member-003', 'Chiara Rossi', true),
		('member-004', 'Daan de Vries', true),
		('member-005', 'Elena Petrova', false)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed voters: %w", err)
	}
	fmt.Println("  Seeded: voters")

	return nil
}
