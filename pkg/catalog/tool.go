package catalog

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EndpointType determines which execution strategy a tool is bound to.
// It is fixed at creation and never changes for the life of a tool.
type EndpointType string

const (
	EndpointInternalAction EndpointType = "INTERNAL_ACTION"
	EndpointAPIRoute       EndpointType = "API_ROUTE"
	EndpointExternalURL    EndpointType = "EXTERNAL_URL"
)

// IsValidEndpointType checks if an endpoint type is one of the known strategies.
func IsValidEndpointType(t string) bool {
	switch EndpointType(t) {
	case EndpointInternalAction, EndpointAPIRoute, EndpointExternalURL:
		return true
	}
	return false
}

// ToolCategory groups tools for display and prompt-context assembly.
type ToolCategory string

const (
	CategoryCRM       ToolCategory = "crm"
	CategoryMLS       ToolCategory = "mls"
	CategoryCalendar  ToolCategory = "calendar"
	CategoryDocuments ToolCategory = "documents"
	CategoryUtility   ToolCategory = "utility"
	CategoryGeneral   ToolCategory = "general"
)

// AllCategories returns all valid tool categories
func AllCategories() []ToolCategory {
	return []ToolCategory{
		CategoryCRM,
		CategoryMLS,
		CategoryCalendar,
		CategoryDocuments,
		CategoryUtility,
		CategoryGeneral,
	}
}

// IsValidCategory checks if a category is valid
func IsValidCategory(category string) bool {
	cat := ToolCategory(strings.ToLower(category))
	for _, valid := range AllCategories() {
		if cat == valid {
			return true
		}
	}
	return false
}

// CategoryHeading returns the human-readable heading for a category,
// used by the prompt-context adapter.
func CategoryHeading(category string) string {
	switch ToolCategory(strings.ToLower(category)) {
	case CategoryCRM:
		return "CRM Tools"
	case CategoryMLS:
		return "MLS Tools"
	case CategoryCalendar:
		return "Calendar Tools"
	case CategoryDocuments:
		return "Document Tools"
	case CategoryUtility:
		return "Utility Tools"
	case CategoryGeneral:
		return "General Tools"
	default:
		name := strings.ToLower(category)
		if name == "" {
			return "Other Tools"
		}
		return strings.ToUpper(name[:1]) + name[1:] + " Tools"
	}
}

// Tool is a named, schema-described operation an AI agent may invoke.
// Tools are addressable only by Name; no two tools share a name.
type Tool struct {
	Name           string                 `json:"name"`
	DisplayName    string                 `json:"display_name"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	IsEnabled      bool                   `json:"is_enabled"`
	EndpointType   EndpointType           `json:"endpoint_type"`
	EndpointPath   string                 `json:"endpoint_path,omitempty"`
	HTTPMethod     string                 `json:"http_method,omitempty"`
	Parameters     map[string]interface{} `json:"parameters"`
	RequiredScopes []string               `json:"required_scopes,omitempty"`
	WebhookSecret  string                 `json:"-"`
	CreatedAt      time.Time              `json:"created_at,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at,omitempty"`
}

// Validate checks a tool definition for the invariants the catalog enforces.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if t.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if !IsValidEndpointType(string(t.EndpointType)) {
		return fmt.Errorf("invalid endpoint type %q for tool %s", t.EndpointType, t.Name)
	}
	switch t.EndpointType {
	case EndpointAPIRoute, EndpointExternalURL:
		if t.EndpointPath == "" {
			return fmt.Errorf("endpoint path is required for %s tool %s", t.EndpointType, t.Name)
		}
	}
	if t.Parameters != nil {
		if typ, _ := t.Parameters["type"].(string); typ != "object" {
			return fmt.Errorf("parameters schema for tool %s must have type \"object\"", t.Name)
		}
	}
	return nil
}

// Method returns the HTTP method for route dispatch, defaulting to POST.
func (t *Tool) Method() string {
	if t.HTTPMethod == "" {
		return http.MethodPost
	}
	return strings.ToUpper(t.HTTPMethod)
}

// HasAllScopes reports whether the caller scopes satisfy the tool's
// required scopes. An empty requirement always passes.
func (t *Tool) HasAllScopes(callerScopes []string) bool {
	if len(t.RequiredScopes) == 0 {
		return true
	}
	held := make(map[string]bool, len(callerScopes))
	for _, s := range callerScopes {
		held[s] = true
	}
	for _, required := range t.RequiredScopes {
		if !held[required] {
			return false
		}
	}
	return true
}
