package toolformat

import (
	"github.com/homestack/toolhub/pkg/catalog"
)

// MCPTool is the Model Context Protocol tool shape.
type MCPTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToMCPTools converts tools to the MCP tool format:
// {name, description, inputSchema}.
func ToMCPTools(tools []*catalog.Tool) []MCPTool {
	out := make([]MCPTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, MCPTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: parameterSchema(tool),
		})
	}
	return out
}
