package toolformat

import (
	"github.com/openai/openai-go"

	"github.com/homestack/toolhub/pkg/catalog"
)

// ToOpenAITools converts tools to the OpenAI function-calling format:
// {type: "function", function: {name, description, parameters}}.
func ToOpenAITools(tools []*catalog.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(parameterSchema(tool)),
			},
		})
	}
	return out
}

// ToOpenAIStrictTools is ToOpenAITools with strict mode set, enabling
// structured-output guarantees on models that support it.
func ToOpenAIStrictTools(tools []*catalog.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(parameterSchema(tool)),
				Strict:      openai.Bool(true),
			},
		})
	}
	return out
}

// parameterSchema returns the tool's parameter schema, substituting an
// empty object schema when the tool declares none. Providers reject tools
// without a parameters object.
func parameterSchema(tool *catalog.Tool) map[string]interface{} {
	if tool.Parameters != nil {
		return tool.Parameters
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
