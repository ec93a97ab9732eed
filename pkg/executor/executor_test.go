package executor

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homestack/toolhub/pkg/actions"
	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/execlog"
	"github.com/homestack/toolhub/pkg/registry"
	"github.com/homestack/toolhub/pkg/schema"
)

// recordingSink captures execution log entries for assertions.
type recordingSink struct {
	mu      sync.Mutex
	entries []execlog.Entry
}

func (s *recordingSink) Write(ctx context.Context, entry execlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) snapshot() []execlog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]execlog.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

type testEnv struct {
	executor *Executor
	store    catalog.Store
	actions  *actions.Registry
	sink     *recordingSink
	writer   *execlog.Writer
}

func newTestEnv(t *testing.T, baseURL string) *testEnv {
	t.Helper()

	store, err := catalog.NewSQLiteStore(catalog.SQLiteConfig{
		DBPath: filepath.Join(t.TempDir(), "catalog.db"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg, err := registry.New(registry.Config{Store: store, Logger: zerolog.Nop()})
	require.NoError(t, err)

	actionRegistry := actions.NewRegistry()
	require.NoError(t, actions.RegisterCoreActions(actionRegistry))

	sink := &recordingSink{}
	writer := execlog.NewWriter(execlog.WriterConfig{Sink: sink, Logger: zerolog.Nop()})
	t.Cleanup(func() { writer.Close() })

	exec, err := New(Config{
		Registry:  reg,
		Validator: schema.NewValidator(),
		Actions:   actionRegistry,
		LogWriter: writer,
		BaseURL:   NewBaseURLResolver(baseURL, 0),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	return &testEnv{
		executor: exec,
		store:    store,
		actions:  actionRegistry,
		sink:     sink,
		writer:   writer,
	}
}

func (env *testEnv) createTool(t *testing.T, tool *catalog.Tool) {
	t.Helper()
	require.NoError(t, env.store.Create(context.Background(), tool))
}

// waitForEntries flushes the fire-and-forget log queue.
func (env *testEnv) waitForEntries(t *testing.T, n int) []execlog.Entry {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(env.sink.snapshot()) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return env.sink.snapshot()
}

func echoTool() *catalog.Tool {
	return &catalog.Tool{
		Name:         "echo",
		DisplayName:  "Echo",
		Description:  "Echoes a message back",
		Category:     string(catalog.CategoryUtility),
		IsEnabled:    true,
		EndpointType: catalog.EndpointInternalAction,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"msg": map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"msg"},
		},
	}
}

func TestExecuteTool_NotFound(t *testing.T) {
	env := newTestEnv(t, "")

	result := env.executor.ExecuteTool(context.Background(), "nope", nil, ExecutionContext{Source: SourceChat})

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Contains(t, result.Error, "tool not found")

	// No tool, no log entry.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, env.sink.snapshot())
}

func TestExecuteTool_DisabledIsNotFound(t *testing.T) {
	env := newTestEnv(t, "")
	tool := echoTool()
	tool.IsEnabled = false
	env.createTool(t, tool)

	result := env.executor.ExecuteTool(context.Background(), "echo", map[string]interface{}{"msg": "hi"}, ExecutionContext{Source: SourceChat})

	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestExecuteTool_InternalActionSuccess(t *testing.T) {
	env := newTestEnv(t, "")
	env.createTool(t, echoTool())

	result := env.executor.ExecuteTool(context.Background(), "echo", map[string]interface{}{"msg": "hello"}, ExecutionContext{
		OrganizationID: "org-1",
		UserID:         "user-1",
		Source:         SourceChat,
	})

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "hello", result.Data)
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))

	entries := env.waitForEntries(t, 1)
	assert.Equal(t, "echo", entries[0].ToolName)
	assert.Equal(t, "org-1", entries[0].OrganizationID)
	assert.Equal(t, SourceChat, entries[0].Source)
	assert.Equal(t, http.StatusOK, entries[0].StatusCode)
}

func TestExecuteTool_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.createTool(t, echoTool())

	result := env.executor.ExecuteTool(context.Background(), "echo", map[string]interface{}{}, ExecutionContext{Source: SourceChat})

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Contains(t, result.Error, "msg")

	entries := env.waitForEntries(t, 1)
	assert.Equal(t, http.StatusBadRequest, entries[0].StatusCode)
	assert.Equal(t, result.Error, entries[0].ErrorMessage)
}

func TestExecuteTool_ValidationErrorsSemicolonJoined(t *testing.T) {
	env := newTestEnv(t, "")
	tool := echoTool()
	tool.Name = "pair"
	tool.Parameters = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"a": map[string]interface{}{"type": "string"},
			"b": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"a", "b"},
	}
	env.createTool(t, tool)
	require.NoError(t, env.actions.Register("pair", func(ctx context.Context, input map[string]interface{}, meta actions.Meta) (interface{}, error) {
		return "ok", nil
	}))

	result := env.executor.ExecuteTool(context.Background(), "pair", map[string]interface{}{}, ExecutionContext{Source: SourceChat})

	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Contains(t, result.Error, "; ")
	assert.Contains(t, result.Error, "a")
	assert.Contains(t, result.Error, "b")
}

func TestExecuteTool_UnregisteredInternalAction(t *testing.T) {
	env := newTestEnv(t, "")
	tool := echoTool()
	tool.Name = "ghost_action"
	tool.Parameters = nil
	env.createTool(t, tool)

	result := env.executor.ExecuteTool(context.Background(), "ghost_action", nil, ExecutionContext{Source: SourceChat})

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Contains(t, result.Error, "no registered action")
}

func TestExecuteTool_HandlerErrorAndPanic(t *testing.T) {
	env := newTestEnv(t, "")

	failing := echoTool()
	failing.Name = "failing"
	failing.Parameters = nil
	env.createTool(t, failing)
	require.NoError(t, env.actions.Register("failing", func(ctx context.Context, input map[string]interface{}, meta actions.Meta) (interface{}, error) {
		return nil, assert.AnError
	}))

	panicking := echoTool()
	panicking.Name = "panicking"
	panicking.Parameters = nil
	env.createTool(t, panicking)
	require.NoError(t, env.actions.Register("panicking", func(ctx context.Context, input map[string]interface{}, meta actions.Meta) (interface{}, error) {
		panic("boom")
	}))

	result := env.executor.ExecuteTool(context.Background(), "failing", nil, ExecutionContext{Source: SourceChat})
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)

	result = env.executor.ExecuteTool(context.Background(), "panicking", nil, ExecutionContext{Source: SourceChat})
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Contains(t, result.Error, "boom")
}

func TestExecuteTool_ShapedResultFailureMapsTo400(t *testing.T) {
	env := newTestEnv(t, "")
	tool := echoTool()
	tool.Name = "shaped"
	tool.Parameters = nil
	env.createTool(t, tool)
	require.NoError(t, env.actions.Register("shaped", func(ctx context.Context, input map[string]interface{}, meta actions.Meta) (interface{}, error) {
		return &actions.Result{Success: false, Error: "bad input shape"}, nil
	}))

	result := env.executor.ExecuteTool(context.Background(), "shaped", nil, ExecutionContext{Source: SourceChat})

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, "bad input shape", result.Error)
}

func TestExecuteTool_APIRoute(t *testing.T) {
	var gotHeaders http.Header
	var gotQuery string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotQuery = r.URL.RawQuery
		gotBody, _ = io.ReadAll(r.Body)

		switch r.URL.Path {
		case "/api/clients":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"clients": []string{"alice", "bob"}})
		case "/api/contacts":
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "duplicate contact"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL)
	env.createTool(t, &catalog.Tool{
		Name:         "list_clients",
		DisplayName:  "List Clients",
		Description:  "Lists clients",
		Category:     string(catalog.CategoryCRM),
		IsEnabled:    true,
		EndpointType: catalog.EndpointAPIRoute,
		EndpointPath: "/api/clients",
		HTTPMethod:   http.MethodGet,
	})
	env.createTool(t, &catalog.Tool{
		Name:         "create_contact",
		DisplayName:  "Create Contact",
		Description:  "Creates a contact",
		Category:     string(catalog.CategoryCRM),
		IsEnabled:    true,
		EndpointType: catalog.EndpointAPIRoute,
		EndpointPath: "/api/contacts",
		HTTPMethod:   http.MethodPost,
	})

	t.Run("GET serializes input as query params and carries context headers", func(t *testing.T) {
		result := env.executor.ExecuteTool(context.Background(), "list_clients", map[string]interface{}{"limit": 5}, ExecutionContext{
			OrganizationID: "org-9",
			UserID:         "user-9",
			Source:         SourceAPI,
			TestMode:       true,
		})

		require.True(t, result.Success)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Contains(t, gotQuery, "limit=5")
		assert.Equal(t, "org-9", gotHeaders.Get("X-Org-Id"))
		assert.Equal(t, "user-9", gotHeaders.Get("X-User-Id"))
		assert.Equal(t, SourceAPI, gotHeaders.Get("X-Execution-Source"))
		assert.Equal(t, "true", gotHeaders.Get("X-Test-Mode"))

		data := result.Data.(map[string]interface{})
		assert.Len(t, data["clients"], 2)
	})

	t.Run("POST serializes input as JSON body", func(t *testing.T) {
		result := env.executor.ExecuteTool(context.Background(), "create_contact", map[string]interface{}{"name": "Carol"}, ExecutionContext{Source: SourceChat})

		// Non-2xx passes the transport status through with the
		// server-provided error.
		assert.False(t, result.Success)
		assert.Equal(t, http.StatusUnprocessableEntity, result.StatusCode)
		assert.Equal(t, "duplicate contact", result.Error)
		assert.JSONEq(t, `{"name":"Carol"}`, string(gotBody))
		assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	})
}

func TestExecuteTool_APIRouteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL)
	env.createTool(t, &catalog.Tool{
		Name:         "slow_route",
		DisplayName:  "Slow Route",
		Description:  "Never answers in time",
		Category:     string(catalog.CategoryUtility),
		IsEnabled:    true,
		EndpointType: catalog.EndpointAPIRoute,
		EndpointPath: "/slow",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result := env.executor.ExecuteTool(ctx, "slow_route", nil, ExecutionContext{Source: SourceAutomation})

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Contains(t, result.Error, "timeout")
	// The message reports how long the call actually ran, not the
	// configured ceiling the caller's deadline undercut.
	assert.NotContains(t, result.Error, "30s")
}

func TestExecuteTool_ExternalURLKeepsEmbeddedQuery(t *testing.T) {
	var gotQuery url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer srv.Close()

	env := newTestEnv(t, "")
	env.createTool(t, &catalog.Tool{
		Name:         "partner_lookup",
		DisplayName:  "Partner Lookup",
		Description:  "Queries a partner API that carries a fixed key",
		Category:     string(catalog.CategoryGeneral),
		IsEnabled:    true,
		EndpointType: catalog.EndpointExternalURL,
		EndpointPath: srv.URL + "/lookup?api_key=fixed",
		HTTPMethod:   http.MethodGet,
	})

	result := env.executor.ExecuteTool(context.Background(), "partner_lookup", map[string]interface{}{"city": "Austin"}, ExecutionContext{Source: SourceAPI})

	require.True(t, result.Success)
	assert.Equal(t, "fixed", gotQuery.Get("api_key"))
	assert.Equal(t, "Austin", gotQuery.Get("city"))
}

func TestExecuteTool_ExternalURL(t *testing.T) {
	const secret = "whsec_test"
	var gotSignature string
	var gotOrgHeader string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Toolhub-Signature")
		gotOrgHeader = r.Header.Get("X-Org-Id")
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer srv.Close()

	env := newTestEnv(t, "")
	env.createTool(t, &catalog.Tool{
		Name:          "notify_partner",
		DisplayName:   "Notify Partner",
		Description:   "Posts to a partner webhook",
		Category:      string(catalog.CategoryGeneral),
		IsEnabled:     true,
		EndpointType:  catalog.EndpointExternalURL,
		EndpointPath:  srv.URL + "/hook",
		WebhookSecret: secret,
	})

	result := env.executor.ExecuteTool(context.Background(), "notify_partner", map[string]interface{}{"event": "listing_sold"}, ExecutionContext{
		OrganizationID: "org-1",
		Source:         SourceAutomation,
	})

	require.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	// External calls never leak internal context headers.
	assert.Empty(t, gotOrgHeader)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSignature)
}

func TestExecuteToolForTesting(t *testing.T) {
	env := newTestEnv(t, "")
	env.createTool(t, echoTool())

	result := env.executor.ExecuteToolForTesting(context.Background(), "echo", map[string]interface{}{"msg": "dry run"}, "admin-1", "org-1", true)

	require.True(t, result.Success)

	entries := env.waitForEntries(t, 1)
	assert.Equal(t, SourceAdminTest, entries[0].Source)
	assert.Equal(t, "admin-1", entries[0].UserID)
}

func TestBaseURLResolver(t *testing.T) {
	t.Run("configured override wins", func(t *testing.T) {
		r := NewBaseURLResolver("http://internal:3000/", 8080)
		assert.Equal(t, "http://internal:3000", r.Resolve())
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("INTERNAL_API_URL", "http://10.0.0.5:9000")
		r := NewBaseURLResolver("", 8080)
		assert.Equal(t, "http://10.0.0.5:9000", r.Resolve())
	})

	t.Run("loopback default", func(t *testing.T) {
		t.Setenv("INTERNAL_API_URL", "")
		r := NewBaseURLResolver("", 7070)
		assert.Equal(t, "http://127.0.0.1:7070", r.Resolve())
	})
}
