package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	log "github.com/sirupsen/logrus"
)

// DB holds the database connection pool shared by the query package.
var DB *sqlx.DB

// InitDB opens and pings the PostgreSQL pool behind dbURL.
func InitDB(dbURL string) error {
	var err error
	DB, err = sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Errorf("Failed to connect to database: %v", err)
		return err
	}

	if err = DB.Ping(); err != nil {
		log.Errorf("Failed to ping database: %v", err)
		DB.Close()
		return err
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(10)
	// snapshots are rewritten often while assets complete; recycle idle connections
	DB.SetConnMaxIdleTime(5 * time.Minute)

	log.Info("Database connection pool initialized successfully.")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS history_items (
		id         UUID PRIMARY KEY,
		prompt     TEXT NOT NULL DEFAULT '',
		snapshot   JSONB NOT NULL,
		thumbnail  TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS history_items_created_at_idx ON history_items (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id           TEXT PRIMARY KEY,
		type         TEXT NOT NULL CHECK (type IN ('audio', 'video', 'image')),
		content_type TEXT NOT NULL,
		blob         BYTEA NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables the studio needs. Every statement is idempotent.
func Migrate(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	for _, stmt := range schema {
		if _, err := DB.ExecContext(ctx, stmt); err != nil {
			log.Errorf("Migrate: statement failed: %v", err)
			return fmt.Errorf("running migration: %w", err)
		}
	}
	log.Info("Database schema is up to date.")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Errorf("Error closing database connection: %v", err)
		} else {
			log.Info("Database connection pool closed.")
		}
	}
}
