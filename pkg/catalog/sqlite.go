package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteStore persists the tool catalog in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// SQLiteConfig holds SQLite store configuration
type SQLiteConfig struct {
	DBPath string
	Logger zerolog.Logger
}

// NewSQLiteStore opens (and migrates) a SQLite-backed catalog store.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: cfg.Logger,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Str("db_path", cfg.DBPath).Msg("Tool catalog store initialized")
	return s, nil
}

// initSchema creates database tables
func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tools (
			name TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'general',
			is_enabled INTEGER NOT NULL DEFAULT 1,
			endpoint_type TEXT NOT NULL,
			endpoint_path TEXT NOT NULL DEFAULT '',
			http_method TEXT NOT NULL DEFAULT '',
			parameters TEXT NOT NULL DEFAULT '{}',
			required_scopes TEXT NOT NULL DEFAULT '[]',
			webhook_secret TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tools_enabled ON tools(is_enabled);
		CREATE INDEX IF NOT EXISTS idx_tools_category ON tools(category);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const toolColumns = `name, display_name, description, category, is_enabled,
	endpoint_type, endpoint_path, http_method, parameters, required_scopes,
	webhook_secret, created_at, updated_at`

// FindByName returns the tool with the given name, enabled or not.
func (s *SQLiteStore) FindByName(ctx context.Context, name string) (*Tool, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM tools WHERE name = ?", toolColumns), name)
	tool, err := scanTool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tool %s: %w", name, err)
	}
	return tool, nil
}

// FindMany returns tools matching the filter, ordered by (category, display_name).
func (s *SQLiteStore) FindMany(ctx context.Context, filter Filter) ([]*Tool, error) {
	query := fmt.Sprintf("SELECT %s FROM tools", toolColumns)
	clauses := []string{}
	args := []interface{}{}

	if filter.Enabled != nil {
		clauses = append(clauses, "is_enabled = ?")
		args = append(args, boolToInt(*filter.Enabled))
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY category ASC, display_name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tools: %w", err)
	}
	defer rows.Close()

	tools := []*Tool{}
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tool: %w", err)
		}
		tools = append(tools, tool)
	}
	return tools, rows.Err()
}

// Create inserts a new tool. The name must be unused.
func (s *SQLiteStore) Create(ctx context.Context, tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	params, scopes, err := encodeToolBlobs(tool)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tools (name, display_name, description, category, is_enabled,
			endpoint_type, endpoint_path, http_method, parameters, required_scopes,
			webhook_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tool.Name, tool.DisplayName, tool.Description, normalizeCategory(tool.Category),
		boolToInt(tool.IsEnabled), string(tool.EndpointType), tool.EndpointPath,
		tool.HTTPMethod, params, scopes, tool.WebhookSecret,
		now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert tool %s: %w", tool.Name, err)
	}

	s.logger.Info().Str("tool", tool.Name).Str("category", tool.Category).Msg("Tool created")
	return nil
}

// Update replaces an existing tool definition. The endpoint type is part of
// the definition and is overwritten along with everything else; admin
// surfaces are expected to carry it through unchanged.
func (s *SQLiteStore) Update(ctx context.Context, tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	params, scopes, err := encodeToolBlobs(tool)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tools SET display_name = ?, description = ?, category = ?,
			is_enabled = ?, endpoint_type = ?, endpoint_path = ?, http_method = ?,
			parameters = ?, required_scopes = ?, webhook_secret = ?, updated_at = ?
		WHERE name = ?`,
		tool.DisplayName, tool.Description, normalizeCategory(tool.Category),
		boolToInt(tool.IsEnabled), string(tool.EndpointType), tool.EndpointPath,
		tool.HTTPMethod, params, scopes, tool.WebhookSecret,
		time.Now().Unix(), tool.Name)
	if err != nil {
		return fmt.Errorf("failed to update tool %s: %w", tool.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.logger.Info().Str("tool", tool.Name).Msg("Tool updated")
	return nil
}

// Delete removes a tool by name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tools WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete tool %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.logger.Info().Str("tool", name).Msg("Tool deleted")
	return nil
}

// CategoryCounts aggregates over the full catalog, not just enabled tools.
func (s *SQLiteStore) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), SUM(is_enabled)
		FROM tools GROUP BY category ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer rows.Close()

	counts := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count, &c.EnabledCount); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTool(row rowScanner) (*Tool, error) {
	var (
		tool       Tool
		enabled    int
		endpoint   string
		paramsJSON string
		scopesJSON string
		createdAt  int64
		updatedAt  int64
	)
	err := row.Scan(&tool.Name, &tool.DisplayName, &tool.Description, &tool.Category,
		&enabled, &endpoint, &tool.EndpointPath, &tool.HTTPMethod,
		&paramsJSON, &scopesJSON, &tool.WebhookSecret, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	tool.IsEnabled = enabled != 0
	tool.EndpointType = EndpointType(endpoint)
	tool.CreatedAt = time.Unix(createdAt, 0)
	tool.UpdatedAt = time.Unix(updatedAt, 0)

	if err := json.Unmarshal([]byte(paramsJSON), &tool.Parameters); err != nil {
		return nil, fmt.Errorf("corrupt parameters blob for tool %s: %w", tool.Name, err)
	}
	if err := json.Unmarshal([]byte(scopesJSON), &tool.RequiredScopes); err != nil {
		return nil, fmt.Errorf("corrupt scopes blob for tool %s: %w", tool.Name, err)
	}
	return &tool, nil
}

func encodeToolBlobs(tool *Tool) (params string, scopes string, err error) {
	p := tool.Parameters
	if p == nil {
		p = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	paramsBytes, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode parameters for %s: %w", tool.Name, err)
	}

	sc := tool.RequiredScopes
	if sc == nil {
		sc = []string{}
	}
	scopesBytes, err := json.Marshal(sc)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode scopes for %s: %w", tool.Name, err)
	}
	return string(paramsBytes), string(scopesBytes), nil
}

func normalizeCategory(category string) string {
	if category == "" {
		return string(CategoryGeneral)
	}
	return strings.ToLower(category)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
