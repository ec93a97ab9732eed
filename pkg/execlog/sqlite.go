package execlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteSink persists execution log entries in SQLite.
type SQLiteSink struct {
	db     *sql.DB
	logger zerolog.Logger
}

// SQLiteConfig holds SQLite sink configuration
type SQLiteConfig struct {
	DBPath string
	Logger zerolog.Logger
}

// NewSQLiteSink opens (and migrates) a SQLite-backed execution log sink.
func NewSQLiteSink(cfg SQLiteConfig) (*SQLiteSink, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteSink{db: db, logger: cfg.Logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates database tables
func (s *SQLiteSink) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			tool_name TEXT NOT NULL,
			organization_id TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			api_key_id TEXT NOT NULL DEFAULT '',
			input TEXT NOT NULL DEFAULT '{}',
			output TEXT NOT NULL DEFAULT 'null',
			status_code INTEGER NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			source TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_executions_tool ON executions(tool_name);
		CREATE INDEX IF NOT EXISTS idx_executions_created ON executions(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Write persists one entry.
func (s *SQLiteSink) Write(ctx context.Context, entry Entry) error {
	inputJSON, err := json.Marshal(entry.Input)
	if err != nil {
		inputJSON = []byte("{}")
	}
	outputJSON, err := json.Marshal(entry.Output)
	if err != nil {
		outputJSON = []byte("null")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (id, tool_name, organization_id, user_id, api_key_id,
			input, output, status_code, error_message, duration_ms, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ToolName, entry.OrganizationID, entry.UserID, entry.APIKeyID,
		string(inputJSON), string(outputJSON), entry.StatusCode, entry.ErrorMessage,
		entry.DurationMs, entry.Source, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert execution log entry: %w", err)
	}
	return nil
}

// Recent returns the most recent entries for a tool (all tools when name
// is empty), newest first. Serves the admin console's execution history.
func (s *SQLiteSink) Recent(ctx context.Context, toolName string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, tool_name, organization_id, user_id, api_key_id, input,
		output, status_code, error_message, duration_ms, source, created_at
		FROM executions`
	args := []interface{}{}
	if toolName != "" {
		query += " WHERE tool_name = ?"
		args = append(args, toolName)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry      Entry
			inputJSON  string
			outputJSON string
			createdAt  int64
		)
		if err := rows.Scan(&entry.ID, &entry.ToolName, &entry.OrganizationID,
			&entry.UserID, &entry.APIKeyID, &inputJSON, &outputJSON,
			&entry.StatusCode, &entry.ErrorMessage, &entry.DurationMs,
			&entry.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution log entry: %w", err)
		}
		entry.CreatedAt = time.Unix(createdAt, 0)
		// Older rows may hold output that no longer decodes; history is
		// advisory, so decode failures are tolerated.
		_ = json.Unmarshal([]byte(inputJSON), &entry.Input)
		_ = json.Unmarshal([]byte(outputJSON), &entry.Output)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the retention period. Returns the
// number of rows removed.
func (s *SQLiteSink) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := s.db.ExecContext(ctx, "DELETE FROM executions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune execution log: %w", err)
	}
	removed, _ := res.RowsAffected()
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("Execution log pruned")
	}
	return removed, nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
