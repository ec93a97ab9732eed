package toolformat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/schema"
)

// maxPromptParams caps how many parameter names a prompt bullet lists.
const maxPromptParams = 3

// promptUsageDirectives is appended verbatim to every prompt context.
// Downstream agent prompts depend on this exact structure.
const promptUsageDirectives = `Usage notes:
- Prefer creation tools when the user asks to add, record, or schedule something new; prefer search and list tools when the user asks to find existing records.
- Route anything involving dates, showings, or availability through the calendar tools.
- Resolve @-mentions of people or listings with a lookup tool before acting on them.
- Ask for missing required parameters instead of guessing values.`

// ToPromptContext renders tools as a natural-language block for an agent
// system prompt: tools grouped under human-readable category headings, in
// registry order, with a fixed usage-directive footer.
//
// The output format is a contract with the downstream prompt assembly;
// change it only together with the tests that pin it.
func ToPromptContext(tools []*catalog.Tool) string {
	if len(tools) == 0 {
		return "No tools are currently available.\n\n" + promptUsageDirectives
	}

	// Group by category, preserving the order categories first appear.
	grouped := map[string][]*catalog.Tool{}
	order := []string{}
	for _, tool := range tools {
		if _, seen := grouped[tool.Category]; !seen {
			order = append(order, tool.Category)
		}
		grouped[tool.Category] = append(grouped[tool.Category], tool)
	}

	var b strings.Builder
	for i, category := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ")
		b.WriteString(catalog.CategoryHeading(category))
		b.WriteString("\n")

		for _, tool := range grouped[category] {
			b.WriteString(fmt.Sprintf("- **%s**: %s", tool.Name, tool.Description))
			if params := promptParamSummary(tool); params != "" {
				b.WriteString(" (params: ")
				b.WriteString(params)
				b.WriteString(")")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(promptUsageDirectives)
	return b.String()
}

// promptParamSummary lists up to maxPromptParams parameter names, required
// ones first and starred, the rest alphabetical, with a "+N more" suffix
// when truncated. Schema property maps have no stable order, so the
// ordering here is what makes the output deterministic.
func promptParamSummary(tool *catalog.Tool) string {
	declared := schema.PropertyNames(tool.Parameters)
	if len(declared) == 0 {
		return ""
	}

	required := schema.RequiredFields(tool.Parameters)
	isRequired := map[string]bool{}
	for _, name := range required {
		isRequired[name] = true
	}

	optional := []string{}
	for _, name := range declared {
		if !isRequired[name] {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)

	names := []string{}
	for _, name := range required {
		names = append(names, name+"*")
	}
	names = append(names, optional...)

	total := len(names)
	if total > maxPromptParams {
		return strings.Join(names[:maxPromptParams], ", ") +
			fmt.Sprintf(" +%d more", total-maxPromptParams)
	}
	return strings.Join(names, ", ")
}
