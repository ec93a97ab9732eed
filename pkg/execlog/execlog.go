package execlog

import (
	"context"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entry is one recorded tool execution. Entries are immutable once
// enqueued; the executor builds them and never looks at them again.
type Entry struct {
	ID             string                 `json:"id"`
	ToolName       string                 `json:"tool_name"`
	OrganizationID string                 `json:"organization_id,omitempty"`
	UserID         string                 `json:"user_id,omitempty"`
	APIKeyID       string                 `json:"api_key_id,omitempty"`
	Input          map[string]interface{} `json:"input,omitempty"`
	Output         interface{}            `json:"output,omitempty"`
	StatusCode     int                    `json:"status_code"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	DurationMs     int64                  `json:"duration_ms"`
	Source         string                 `json:"source"`
	CreatedAt      time.Time              `json:"created_at"`
}

// NewEntryID generates a log entry identifier.
func NewEntryID() string {
	id, err := gonanoid.New()
	if err != nil {
		// gonanoid only fails when the OS entropy source does; fall back
		// to a timestamp so the write still lands.
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return id
}

// Sink persists execution log entries. Writes are best-effort from the
// caller's perspective; the Writer swallows sink errors.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
	Close() error
}
