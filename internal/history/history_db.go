package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/migrations"
	"github.com/sciencetwins/twins/internal/types"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("history entry not found")

const timestampLayout = "2006-01-02 15:04:05"

const selectColumns = `
	SELECT id, submission_id, timestamp, mode, encoding, file_name, text_excerpt,
	       response_status, response_body, duration_ms, request_size, response_size, error
	FROM history
`

// Filter narrows Load results
type Filter struct {
	Mode  types.Mode // empty for all modes
	Limit int        // 0 for no limit
}

type Manager struct {
	db *sql.DB
}

func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	// Run database migrations
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

// NewManagerWithDB wraps an already migrated connection
func NewManagerWithDB(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Save inserts an entry and returns its id
func (m *Manager) Save(entry types.HistoryEntry) (int64, error) {
	query := `
		INSERT INTO history (
			submission_id, timestamp, mode, encoding, file_name, text_excerpt,
			response_status, response_body, duration_ms, request_size, response_size, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	res, err := m.db.Exec(query,
		entry.SubmissionID,
		timestamp.Local().Format(timestampLayout),
		string(entry.Mode),
		string(entry.Encoding),
		entry.FileName,
		entry.TextExcerpt,
		entry.Status,
		entry.ResponseBody,
		entry.Duration,
		entry.RequestSize,
		entry.ResponseSize,
		entry.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save history entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read history entry id: %w", err)
	}
	return id, nil
}

// Load returns entries newest first
func (m *Manager) Load(filter Filter) ([]types.HistoryEntry, error) {
	query := selectColumns + `
		WHERE mode = ? OR ? = ''
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{string(filter.Mode), string(filter.Mode)}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Get returns a single entry
func (m *Manager) Get(id int64) (types.HistoryEntry, error) {
	rows, err := m.db.Query(selectColumns+" WHERE id = ?", id)
	if err != nil {
		return types.HistoryEntry{}, fmt.Errorf("failed to load history entry: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return types.HistoryEntry{}, err
	}
	if len(entries) == 0 {
		return types.HistoryEntry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return entries[0], nil
}

func scanEntries(rows *sql.Rows) ([]types.HistoryEntry, error) {
	var entries []types.HistoryEntry

	for rows.Next() {
		var e types.HistoryEntry
		var timestamp string
		var mode, encoding string
		var fileName, excerpt, errorMsg sql.NullString
		var requestSize, responseSize sql.NullInt64

		err := rows.Scan(
			&e.ID,
			&e.SubmissionID,
			&timestamp,
			&mode,
			&encoding,
			&fileName,
			&excerpt,
			&e.Status,
			&e.ResponseBody,
			&e.Duration,
			&requestSize,
			&responseSize,
			&errorMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		e.Mode = types.Mode(mode)
		e.Encoding = types.Encoding(encoding)
		e.FileName = fileName.String
		e.TextExcerpt = excerpt.String
		e.RequestSize = int(requestSize.Int64)
		e.ResponseSize = int(responseSize.Int64)
		e.Error = errorMsg.String
		e.Timestamp = parseTimestamp(timestamp)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// parseTimestamp reads SQLite local timestamps, falling back to RFC3339
func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func (m *Manager) Clear() error {
	_, err := m.db.Exec("DELETE FROM history")
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (m *Manager) Delete(id int64) error {
	_, err := m.db.Exec("DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}

func (m *Manager) GetCount() (int, error) {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get history count: %w", err)
	}
	return count, nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
