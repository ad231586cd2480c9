package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add mode indices",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_history_mode ON history(mode);
			CREATE INDEX IF NOT EXISTS idx_analytics_mode ON analytics(mode);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_history_mode;
			DROP INDEX IF EXISTS idx_analytics_mode;
		`,
	},
	{
		Version: 2,
		Name:    "Add composite index for per-mode stats",
		Up: `
			-- Covers WHERE mode = ? GROUP BY mode ORDER BY timestamp
			CREATE INDEX IF NOT EXISTS idx_analytics_mode_timestamp ON analytics(mode, timestamp DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_analytics_mode_timestamp;
		`,
	},
	{
		Version: 3,
		Name:    "Unique submission ids in history",
		Up: `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_history_submission ON history(submission_id) WHERE submission_id != '';
		`,
		Down: `
			DROP INDEX IF EXISTS idx_history_submission;
		`,
	},
}

// InitSchema creates all tables required across all modules
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	-- Analytics table
	CREATE TABLE IF NOT EXISTS analytics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		encoding TEXT NOT NULL,
		outcome TEXT NOT NULL DEFAULT '',
		status_code INTEGER NOT NULL,
		request_size INTEGER NOT NULL DEFAULT 0,
		response_size INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL,
		error_message TEXT,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_analytics_timestamp ON analytics(timestamp);
	CREATE INDEX IF NOT EXISTS idx_analytics_status_code ON analytics(status_code);

	-- History table
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submission_id TEXT NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL,
		mode TEXT NOT NULL,
		encoding TEXT NOT NULL,
		file_name TEXT,
		text_excerpt TEXT,
		response_status INTEGER NOT NULL,
		response_body TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		request_size INTEGER,
		response_size INTEGER,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Create migrations tracking table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	// Apply pending migrations
	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if _, err := db.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
