package executor

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homestack/toolhub/internal/metrics"
	"github.com/homestack/toolhub/pkg/actions"
	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/execlog"
	"github.com/homestack/toolhub/pkg/registry"
	"github.com/homestack/toolhub/pkg/schema"
)

const (
	// apiRouteTimeout is the hard deadline for internal route dispatch.
	// INTERNAL_ACTION and EXTERNAL_URL rely on the callee's own timeout
	// behavior.
	apiRouteTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Execution sources tagged onto every invocation.
const (
	SourceChat       = "chat"
	SourceAdminTest  = "admin_test"
	SourceAPI        = "api"
	SourceAutomation = "automation"
)

// ExecutionContext carries per-call metadata through dispatch and logging.
type ExecutionContext struct {
	OrganizationID string `json:"organization_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	APIKeyID       string `json:"api_key_id,omitempty"`
	Source         string `json:"source"`
	TestMode       bool   `json:"test_mode"`
}

// ExecutionResult is the uniform outcome of a tool invocation. It is
// created fresh per call and never mutated after return.
type ExecutionResult struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	StatusCode int         `json:"status_code"`
	DurationMs int64       `json:"duration_ms"`
}

// Executor resolves tools, validates input, and dispatches to one of the
// three endpoint types. It never returns an error to its caller: every
// failure mode becomes a structured ExecutionResult.
type Executor struct {
	registry  *registry.Registry
	validator *schema.Validator
	actions   *actions.Registry
	logWriter *execlog.Writer
	baseURL   *BaseURLResolver
	client    *http.Client
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// Config holds executor dependencies. Registry, Validator, and Actions
// are required; LogWriter and Metrics are optional.
type Config struct {
	Registry  *registry.Registry
	Validator *schema.Validator
	Actions   *actions.Registry
	LogWriter *execlog.Writer
	BaseURL   *BaseURLResolver
	// HTTPClient overrides the default client (no client-level timeout;
	// deadlines come from the request context).
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// New creates an Executor.
func New(cfg Config) (*Executor, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("executor: registry is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("executor: validator is required")
	}
	if cfg.Actions == nil {
		return nil, fmt.Errorf("executor: action registry is required")
	}

	resolver := cfg.BaseURL
	if resolver == nil {
		resolver = NewBaseURLResolver("", 0)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Executor{
		registry:  cfg.Registry,
		validator: cfg.Validator,
		actions:   cfg.Actions,
		logWriter: cfg.LogWriter,
		baseURL:   resolver,
		client:    client,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// ExecuteTool runs a tool by name. Lookup failures return 404 without a
// log write (no tool to log against); validation failures return 400 and
// are logged; dispatch outcomes are logged with their transport status.
func (e *Executor) ExecuteTool(ctx context.Context, name string, input map[string]interface{}, execCtx ExecutionContext) (result ExecutionResult) {
	start := time.Now()

	var tool *catalog.Tool

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("tool", name).
				Interface("panic", r).
				Msg("Tool execution panicked")
			result = ExecutionResult{
				Success:    false,
				Error:      fmt.Sprintf("internal error: %v", r),
				StatusCode: http.StatusInternalServerError,
				DurationMs: time.Since(start).Milliseconds(),
			}
			if tool != nil {
				e.record(tool, input, result, execCtx)
			}
		}
	}()

	tool, err := e.registry.GetEnabledToolByName(ctx, name)
	if err != nil {
		e.logger.Error().Str("tool", name).Err(err).Msg("Tool lookup failed")
		return e.finish(start, nil, input, execCtx, ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("tool lookup failed: %v", err),
			StatusCode: http.StatusInternalServerError,
		})
	}
	if tool == nil {
		return e.finish(start, nil, input, execCtx, ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("tool not found: %s", name),
			StatusCode: http.StatusNotFound,
		})
	}

	if vr := e.validator.Validate(tool.Parameters, input); !vr.Valid {
		return e.finish(start, tool, input, execCtx, ExecutionResult{
			Success:    false,
			Error:      strings.Join(vr.Errors, "; "),
			StatusCode: http.StatusBadRequest,
		})
	}

	e.logger.Debug().
		Str("tool", tool.Name).
		Str("endpoint_type", string(tool.EndpointType)).
		Str("source", execCtx.Source).
		Msg("Dispatching tool")

	var dispatched ExecutionResult
	switch tool.EndpointType {
	case catalog.EndpointInternalAction:
		dispatched = e.executeInternalAction(ctx, tool, input, execCtx)
	case catalog.EndpointAPIRoute:
		dispatched = e.executeAPIRoute(ctx, tool, input, execCtx)
	case catalog.EndpointExternalURL:
		dispatched = e.executeExternalURL(ctx, tool, input)
	default:
		dispatched = ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("unknown endpoint type: %s", tool.EndpointType),
			StatusCode: http.StatusInternalServerError,
		}
	}

	return e.finish(start, tool, input, execCtx, dispatched)
}

// ExecuteToolForTesting runs a tool with the admin_test source so admin
// tooling can dry-run a tool without faking a full agent context.
func (e *Executor) ExecuteToolForTesting(ctx context.Context, name string, input map[string]interface{}, adminUserID, organizationID string, testMode bool) ExecutionResult {
	return e.ExecuteTool(ctx, name, input, ExecutionContext{
		OrganizationID: organizationID,
		UserID:         adminUserID,
		Source:         SourceAdminTest,
		TestMode:       testMode,
	})
}

func (e *Executor) executeInternalAction(ctx context.Context, tool *catalog.Tool, input map[string]interface{}, execCtx ExecutionContext) (result ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("tool", tool.Name).
				Interface("panic", r).
				Msg("Internal action panicked")
			result = ExecutionResult{
				Success:    false,
				Error:      fmt.Sprintf("action panicked: %v", r),
				StatusCode: http.StatusInternalServerError,
			}
		}
	}()

	handler := e.actions.Lookup(tool.Name)
	if handler == nil {
		return ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("no registered action for tool: %s", tool.Name),
			StatusCode: http.StatusInternalServerError,
		}
	}

	out, err := handler(ctx, input, actions.Meta{
		OrganizationID: execCtx.OrganizationID,
		UserID:         execCtx.UserID,
		Source:         execCtx.Source,
		TestMode:       execCtx.TestMode,
	})
	if err != nil {
		return ExecutionResult{
			Success:    false,
			Error:      err.Error(),
			StatusCode: http.StatusInternalServerError,
		}
	}

	// A handler returning the shaped result controls the translated
	// status; anything else wraps as a plain success.
	if shaped, ok := out.(*actions.Result); ok {
		if !shaped.Success {
			return ExecutionResult{
				Success:    false,
				Data:       shaped.Data,
				Error:      shaped.Error,
				StatusCode: http.StatusBadRequest,
			}
		}
		return ExecutionResult{
			Success:    true,
			Data:       shaped.Data,
			StatusCode: http.StatusOK,
		}
	}

	return ExecutionResult{
		Success:    true,
		Data:       out,
		StatusCode: http.StatusOK,
	}
}

func (e *Executor) executeAPIRoute(ctx context.Context, tool *catalog.Tool, input map[string]interface{}, execCtx ExecutionContext) ExecutionResult {
	target := e.baseURL.Resolve() + tool.EndpointPath

	reqCtx, cancel := context.WithTimeout(ctx, apiRouteTimeout)
	defer cancel()

	req, err := buildRequest(reqCtx, tool.Method(), target, input)
	if err != nil {
		return ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("failed to build request: %v", err),
			StatusCode: http.StatusInternalServerError,
		}
	}

	// The internal target applies tenant context from headers instead of
	// re-deriving it.
	if execCtx.OrganizationID != "" {
		req.Header.Set("X-Org-Id", execCtx.OrganizationID)
	}
	if execCtx.UserID != "" {
		req.Header.Set("X-User-Id", execCtx.UserID)
	}
	if execCtx.Source != "" {
		req.Header.Set("X-Execution-Source", execCtx.Source)
	}
	if execCtx.TestMode {
		req.Header.Set("X-Test-Mode", "true")
	}

	issued := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			// The caller's context may carry a deadline shorter than
			// apiRouteTimeout, so report the elapsed time rather than
			// the configured ceiling.
			return ExecutionResult{
				Success:    false,
				Error:      fmt.Sprintf("request timeout after %s calling %s", time.Since(issued).Round(time.Millisecond), tool.EndpointPath),
				StatusCode: http.StatusInternalServerError,
			}
		}
		return ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("request failed: %v", err),
			StatusCode: http.StatusInternalServerError,
		}
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func (e *Executor) executeExternalURL(ctx context.Context, tool *catalog.Tool, input map[string]interface{}) ExecutionResult {
	req, err := buildRequest(ctx, tool.Method(), tool.EndpointPath, input)
	if err != nil {
		return ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("failed to build request: %v", err),
			StatusCode: http.StatusInternalServerError,
		}
	}

	if tool.WebhookSecret != "" && req.Body != nil {
		body, rerr := io.ReadAll(req.Body)
		if rerr != nil {
			return ExecutionResult{
				Success:    false,
				Error:      fmt.Sprintf("failed to sign request: %v", rerr),
				StatusCode: http.StatusInternalServerError,
			}
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.Header.Set("X-Toolhub-Signature", signPayload(body, tool.WebhookSecret))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("external request failed: %v", err),
			StatusCode: http.StatusInternalServerError,
		}
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

// finish stamps the duration, records metrics and the execution log, and
// returns the result unchanged otherwise.
func (e *Executor) finish(start time.Time, tool *catalog.Tool, input map[string]interface{}, execCtx ExecutionContext, result ExecutionResult) ExecutionResult {
	result.DurationMs = time.Since(start).Milliseconds()
	if result.DurationMs < 0 {
		result.DurationMs = 0
	}

	if tool != nil {
		if e.metrics != nil {
			status := "success"
			if !result.Success {
				status = "failure"
			}
			e.metrics.ToolExecutionsTotal.WithLabelValues(tool.Name, status).Inc()
			e.metrics.ToolExecutionDuration.WithLabelValues(tool.Name).Observe(time.Since(start).Seconds())
			if !result.Success {
				e.metrics.ToolExecutionErrorsTotal.WithLabelValues(tool.Name, errorType(result)).Inc()
			}
		}
		e.record(tool, input, result, execCtx)
	}

	if !result.Success {
		e.logger.Warn().
			Str("tool", toolName(tool)).
			Int("status_code", result.StatusCode).
			Str("error", result.Error).
			Int64("duration_ms", result.DurationMs).
			Msg("Tool execution failed")
	} else {
		e.logger.Info().
			Str("tool", toolName(tool)).
			Int64("duration_ms", result.DurationMs).
			Msg("Tool execution completed")
	}

	return result
}

// record enqueues a log entry; it never blocks or fails the call.
func (e *Executor) record(tool *catalog.Tool, input map[string]interface{}, result ExecutionResult, execCtx ExecutionContext) {
	if e.logWriter == nil {
		return
	}
	e.logWriter.Enqueue(execlog.Entry{
		ToolName:       tool.Name,
		OrganizationID: execCtx.OrganizationID,
		UserID:         execCtx.UserID,
		APIKeyID:       execCtx.APIKeyID,
		Input:          input,
		Output:         result.Data,
		StatusCode:     result.StatusCode,
		ErrorMessage:   result.Error,
		DurationMs:     result.DurationMs,
		Source:         execCtx.Source,
	})
}

// buildRequest serializes input as query parameters for GET requests and
// as a JSON body otherwise.
func buildRequest(ctx context.Context, method, target string, input map[string]interface{}) (*http.Request, error) {
	if method == http.MethodGet {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		// Merge with any query string already embedded in the target URL.
		q := req.URL.Query()
		for key, value := range input {
			q.Set(key, fmt.Sprintf("%v", value))
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// decodeResponse converts an HTTP response into an ExecutionResult.
// Non-2xx responses become failures carrying the transport status; they
// are never surfaced as errors.
func decodeResponse(resp *http.Response) ExecutionResult {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ExecutionResult{
			Success:    false,
			Error:      fmt.Sprintf("failed to read response: %v", err),
			StatusCode: http.StatusInternalServerError,
		}
	}

	var decoded interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			decoded = string(raw)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ExecutionResult{
			Success:    false,
			Error:      serverError(decoded, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return ExecutionResult{
		Success:    true,
		Data:       decoded,
		StatusCode: resp.StatusCode,
	}
}

// serverError prefers an error message from the response body over a
// generic status-line message.
func serverError(decoded interface{}, status int) string {
	if obj, ok := decoded.(map[string]interface{}); ok {
		for _, key := range []string{"error", "message"} {
			if msg, ok := obj[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func signPayload(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

func errorType(result ExecutionResult) string {
	switch {
	case result.StatusCode == http.StatusNotFound:
		return "not_found"
	case result.StatusCode == http.StatusBadRequest:
		return "validation"
	case strings.Contains(result.Error, "timeout"):
		return "timeout"
	default:
		return "execution"
	}
}

func toolName(tool *catalog.Tool) string {
	if tool == nil {
		return ""
	}
	return tool.Name
}
