package toolformat

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/schema"
)

// ToAnthropicTools converts tools to the Anthropic tool format:
// {name, description, input_schema}.
func ToAnthropicTools(tools []*catalog.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		doc := parameterSchema(tool)

		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: doc["properties"],
			},
		}
		if required := schema.RequiredFields(doc); len(required) > 0 {
			toolParam.InputSchema.Required = required
		}

		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}
