package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/executor"
	"github.com/homestack/toolhub/pkg/toolformat"
)

// executeRequest is the body of POST /v1/tools/execute.
type executeRequest struct {
	Tool  string                 `json:"tool"`
	Input map[string]interface{} `json:"input"`
}

// testRequest is the body of POST /v1/admin/tools/{name}/test.
type testRequest struct {
	Input          map[string]interface{} `json:"input"`
	AdminUserID    string                 `json:"admin_user_id"`
	OrganizationID string                 `json:"organization_id"`
	TestMode       *bool                  `json:"test_mode"`
}

// handleListTools serves the enabled tool list, optionally filtered by
// category and rendered in a vendor tool-calling format.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.URL.Query().Get("category")

	var tools []*catalog.Tool
	var err error
	if category != "" {
		tools, err = s.registry.GetEnabledToolsByCategory(ctx, category)
	} else {
		tools, err = s.registry.GetEnabledTools(ctx)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tools")
		writeError(w, http.StatusInternalServerError, "failed to list tools")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "raw":
		writeJSON(w, http.StatusOK, map[string]interface{}{"tools": tools})
	case "openai":
		writeJSON(w, http.StatusOK, map[string]interface{}{"tools": toolformat.ToOpenAITools(tools)})
	case "openai-strict":
		writeJSON(w, http.StatusOK, map[string]interface{}{"tools": toolformat.ToOpenAIStrictTools(tools)})
	case "anthropic":
		writeJSON(w, http.StatusOK, map[string]interface{}{"tools": toolformat.ToAnthropicTools(tools)})
	case "mcp":
		writeJSON(w, http.StatusOK, map[string]interface{}{"tools": toolformat.ToMCPTools(tools)})
	case "prompt":
		writeJSON(w, http.StatusOK, map[string]interface{}{"prompt": toolformat.ToPromptContext(tools)})
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format: %s", format))
	}
}

// handleExecute runs a tool. The execution context comes from headers so
// upstream services can forward tenant identity without re-deriving it.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	ip := s.getClientIP(r)
	if !s.rateLimiter.CheckLimit(ip) {
		retryAfter := s.rateLimiter.GetRetryAfter(ip)
		s.logger.Warn().
			Str("ip", ip).
			Int("retry_after", retryAfter).
			Msg("Rate limit exceeded")
		if s.metrics != nil {
			s.metrics.HTTPRateLimitedTotal.Inc()
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "tool name is required")
		return
	}

	source := r.Header.Get("X-Execution-Source")
	if source == "" {
		source = executor.SourceAPI
	}

	execCtx := executor.ExecutionContext{
		OrganizationID: r.Header.Get("X-Org-Id"),
		UserID:         r.Header.Get("X-User-Id"),
		APIKeyID:       r.Header.Get("X-Api-Key-Id"),
		Source:         source,
		TestMode:       r.Header.Get("X-Test-Mode") == "true",
	}

	result := s.executor.ExecuteTool(r.Context(), req.Tool, req.Input, execCtx)

	s.broadcaster.BroadcastExecution(ExecutionEvent{
		Tool:       req.Tool,
		Success:    result.Success,
		StatusCode: result.StatusCode,
		DurationMs: result.DurationMs,
		Source:     execCtx.Source,
	})

	writeJSON(w, resultStatus(result), result)
}

func (s *Server) handleCreateTool(w http.ResponseWriter, r *http.Request) {
	var tool catalog.Tool
	if err := json.NewDecoder(r.Body).Decode(&tool); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := tool.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.Create(r.Context(), &tool); err != nil {
		s.logger.Error().Err(err).Str("tool", tool.Name).Msg("Failed to create tool")
		writeError(w, http.StatusInternalServerError, "failed to create tool")
		return
	}

	s.registry.InvalidateToolsCache()
	s.logger.Info().Str("tool", tool.Name).Msg("Tool created")
	writeJSON(w, http.StatusCreated, &tool)
}

func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	tool, err := s.store.FindByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("tool not found: %s", name))
			return
		}
		s.logger.Error().Err(err).Str("tool", name).Msg("Failed to fetch tool")
		writeError(w, http.StatusInternalServerError, "failed to fetch tool")
		return
	}

	writeJSON(w, http.StatusOK, tool)
}

func (s *Server) handleUpdateTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	existing, err := s.store.FindByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("tool not found: %s", name))
			return
		}
		s.logger.Error().Err(err).Str("tool", name).Msg("Failed to fetch tool")
		writeError(w, http.StatusInternalServerError, "failed to fetch tool")
		return
	}

	var tool catalog.Tool
	if err := json.NewDecoder(r.Body).Decode(&tool); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tool.Name = name

	// The endpoint type is fixed at creation.
	if tool.EndpointType != "" && tool.EndpointType != existing.EndpointType {
		writeError(w, http.StatusBadRequest, "endpoint type cannot be changed")
		return
	}
	tool.EndpointType = existing.EndpointType

	if err := tool.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.Update(r.Context(), &tool); err != nil {
		s.logger.Error().Err(err).Str("tool", name).Msg("Failed to update tool")
		writeError(w, http.StatusInternalServerError, "failed to update tool")
		return
	}

	s.registry.InvalidateToolsCache()
	s.logger.Info().Str("tool", name).Msg("Tool updated")
	writeJSON(w, http.StatusOK, &tool)
}

func (s *Server) handleDeleteTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := s.store.Delete(r.Context(), name); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("tool not found: %s", name))
			return
		}
		s.logger.Error().Err(err).Str("tool", name).Msg("Failed to delete tool")
		writeError(w, http.StatusInternalServerError, "failed to delete tool")
		return
	}

	s.registry.InvalidateToolsCache()
	s.logger.Info().Str("tool", name).Msg("Tool deleted")
	w.WriteHeader(http.StatusNoContent)
}

// handleTestTool dry-runs a tool with the admin_test source.
func (s *Server) handleTestTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	testMode := true
	if req.TestMode != nil {
		testMode = *req.TestMode
	}

	result := s.executor.ExecuteToolForTesting(r.Context(), name, req.Input, req.AdminUserID, req.OrganizationID, testMode)

	writeJSON(w, resultStatus(result), result)
}

// resultStatus maps an execution result onto the HTTP response status.
// The result body always carries the authoritative status code.
func resultStatus(result executor.ExecutionResult) int {
	if result.StatusCode >= 100 && result.StatusCode < 600 {
		return result.StatusCode
	}
	return http.StatusInternalServerError
}
