package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/migrations"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/types"
)

const timestampLayout = "2006-01-02 15:04:05"

type Entry struct {
	ID           int64
	Mode         types.Mode
	Encoding     types.Encoding
	Outcome      string // results.Kind of the rendered view, empty on failure
	StatusCode   int
	RequestSize  int64
	ResponseSize int64
	DurationMs   int64
	ErrorMessage string
	Timestamp    time.Time
}

type Stats struct {
	Mode          types.Mode
	TotalCalls    int
	SuccessCount  int
	ErrorCount    int
	NetworkErrors int // connection refused, timeouts, cancellations (status code 0)
	AvgDurationMs float64
	MinDurationMs int64
	MaxDurationMs int64
	TotalReqSize  int64
	TotalRespSize int64
	Outcomes      map[string]int // e.g. "plagiarism": 3, "no_plagiarism": 9
	LastCalled    time.Time
}

type Manager struct {
	db    *sql.DB
	cache *statsCache
}

func NewManager(dbPath string) (*Manager, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create analytics directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to analytics database: %w", err)
	}

	// Run database migrations
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db, cache: newStatsCache(30 * time.Second)}, nil
}

func (m *Manager) Save(entry Entry) error {
	query := `
		INSERT INTO analytics (mode, encoding, outcome, status_code, request_size, response_size, duration_ms, error_message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := m.db.Exec(query,
		string(entry.Mode),
		string(entry.Encoding),
		entry.Outcome,
		entry.StatusCode,
		entry.RequestSize,
		entry.ResponseSize,
		entry.DurationMs,
		entry.ErrorMessage,
		timestamp.Local().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save analytics entry: %w", err)
	}

	m.cache.invalidate()
	return nil
}

// LoadAll returns the most recent entries, newest first
func (m *Manager) LoadAll(limit int) ([]Entry, error) {
	query := `
		SELECT id, mode, encoding, outcome, status_code, request_size, response_size, duration_ms, error_message, timestamp
		FROM analytics
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load all analytics: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var mode, encoding, timestamp string
		var errorMsg sql.NullString

		err := rows.Scan(
			&e.ID,
			&mode,
			&encoding,
			&e.Outcome,
			&e.StatusCode,
			&e.RequestSize,
			&e.ResponseSize,
			&e.DurationMs,
			&errorMsg,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analytics entry: %w", err)
		}

		e.Mode = types.Mode(mode)
		e.Encoding = types.Encoding(encoding)
		e.ErrorMessage = errorMsg.String
		e.Timestamp = parseTimestamp(timestamp)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// GetStatsPerMode aggregates all entries by mode
func (m *Manager) GetStatsPerMode() ([]Stats, error) {
	if cached, ok := m.cache.get(); ok {
		return cached, nil
	}

	// Outcome counts come from a JSON aggregation to keep this a single query
	query := `
		WITH outcomes_agg AS (
			SELECT
				mode,
				json_group_object(outcome, count) as outcomes_json
			FROM (
				SELECT mode, outcome, COUNT(*) as count
				FROM analytics
				WHERE outcome != ''
				GROUP BY mode, outcome
			)
			GROUP BY mode
		)
		SELECT
			a.mode,
			COUNT(*) as total_calls,
			SUM(CASE WHEN a.status_code >= 200 AND a.status_code < 300 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN a.status_code >= 400 THEN 1 ELSE 0 END) as error_count,
			SUM(CASE WHEN a.status_code = 0 THEN 1 ELSE 0 END) as network_errors,
			AVG(a.duration_ms) as avg_duration,
			MIN(a.duration_ms) as min_duration,
			MAX(a.duration_ms) as max_duration,
			SUM(a.request_size) as total_req_size,
			SUM(a.response_size) as total_resp_size,
			MAX(a.timestamp) as last_called,
			COALESCE(o.outcomes_json, '{}') as outcomes_json
		FROM analytics a
		LEFT JOIN outcomes_agg o ON a.mode = o.mode
		GROUP BY a.mode
		ORDER BY a.mode
	`

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats per mode: %w", err)
	}
	defer rows.Close()

	var statsList []Stats
	for rows.Next() {
		var s Stats
		var mode string
		var lastCalled sql.NullString
		var outcomesJSON string

		err := rows.Scan(
			&mode,
			&s.TotalCalls,
			&s.SuccessCount,
			&s.ErrorCount,
			&s.NetworkErrors,
			&s.AvgDurationMs,
			&s.MinDurationMs,
			&s.MaxDurationMs,
			&s.TotalReqSize,
			&s.TotalRespSize,
			&lastCalled,
			&outcomesJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}

		s.Mode = types.Mode(mode)
		if lastCalled.Valid {
			s.LastCalled = parseTimestamp(lastCalled.String)
		}

		s.Outcomes = make(map[string]int)
		if err := json.Unmarshal([]byte(outcomesJSON), &s.Outcomes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcomes: %w", err)
		}

		statsList = append(statsList, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.cache.set(statsList)
	return statsList, nil
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
	_, err := m.db.Exec("DELETE FROM analytics")
	if err != nil {
		return fmt.Errorf("failed to clear analytics: %w", err)
	}
	m.cache.invalidate()
	return nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// EntryFromTransition builds the analytics entry for a finished submission
func EntryFromTransition(t lifecycle.Transition) (Entry, bool) {
	if t.Submission == nil || (t.To != lifecycle.Succeeded && t.To != lifecycle.Failed) {
		return Entry{}, false
	}

	sub := t.Submission
	e := Entry{
		Mode:       sub.Mode,
		Encoding:   types.EncodingJSON,
		DurationMs: t.At.Sub(sub.Started).Milliseconds(),
		Timestamp:  sub.Started,
	}
	if sub.Request != nil {
		e.Encoding = sub.Request.Encoding
		e.RequestSize = int64(len(sub.Request.Body))
	}

	if t.To == lifecycle.Failed {
		e.StatusCode = executor.StatusOf(t.State.Cause)
		if t.State.Cause != nil {
			e.ErrorMessage = t.State.Cause.Error()
		}
		return e, true
	}

	e.StatusCode = 200
	e.Outcome = results.Interpret(t.State).Kind().String()
	if t.State.Response != nil {
		if body, err := json.Marshal(t.State.Response); err == nil {
			e.ResponseSize = int64(len(body))
		}
	}
	return e, true
}

// Recorder returns an observer that saves analytics for finished submissions
func Recorder(m *Manager, logger *slog.Logger) func(lifecycle.Transition) {
	return func(t lifecycle.Transition) {
		entry, ok := EntryFromTransition(t)
		if !ok {
			return
		}
		if err := m.Save(entry); err != nil {
			logger.Warn("failed to save analytics entry", "mode", string(entry.Mode), "error", err)
		}
	}
}

// FormatOutcomes lists outcome counts, most frequent first
func FormatOutcomes(outcomes map[string]int) string {
	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if outcomes[names[i]] != outcomes[names[j]] {
			return outcomes[names[i]] > outcomes[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, outcomes[name])
	}
	return strings.Join(parts, ", ")
}
