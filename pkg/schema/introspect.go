package schema

// Read-only introspection helpers over JSON-Schema-shaped parameter
// definitions. These serve admin tooling (form pre-fill, parameter tables)
// and are not on the execution path.

// GenerateDefaultValue produces a representative empty instance of the
// schema: the declared default when present, otherwise the zero-ish value
// for the declared type.
func GenerateDefaultValue(schemaDoc map[string]interface{}) interface{} {
	if schemaDoc == nil {
		return nil
	}
	if def, ok := schemaDoc["default"]; ok {
		return def
	}

	typ, _ := schemaDoc["type"].(string)
	switch typ {
	case "string":
		return ""
	case "number":
		return float64(0)
	case "integer":
		return 0
	case "boolean":
		return false
	case "array":
		return []interface{}{}
	case "object":
		instance := map[string]interface{}{}
		if props, ok := schemaDoc["properties"].(map[string]interface{}); ok {
			for name, raw := range props {
				if propSchema, ok := raw.(map[string]interface{}); ok {
					instance[name] = GenerateDefaultValue(propSchema)
				}
			}
		}
		return instance
	default:
		return nil
	}
}

// RequiredFields returns the schema's required property names.
func RequiredFields(schemaDoc map[string]interface{}) []string {
	fields := []string{}
	if schemaDoc == nil {
		return fields
	}
	raw, ok := schemaDoc["required"].([]interface{})
	if !ok {
		// Already-typed slices appear when the schema was built in-process.
		if typed, ok := schemaDoc["required"].([]string); ok {
			return append(fields, typed...)
		}
		return fields
	}
	for _, item := range raw {
		if name, ok := item.(string); ok {
			fields = append(fields, name)
		}
	}
	return fields
}

// PropertyDescriptions returns property name → description for every
// property carrying one.
func PropertyDescriptions(schemaDoc map[string]interface{}) map[string]string {
	descriptions := map[string]string{}
	for name, propSchema := range properties(schemaDoc) {
		if desc, ok := propSchema["description"].(string); ok && desc != "" {
			descriptions[name] = desc
		}
	}
	return descriptions
}

// PropertyNames returns every declared property name, including
// properties that carry no type.
func PropertyNames(schemaDoc map[string]interface{}) []string {
	names := []string{}
	for name := range properties(schemaDoc) {
		names = append(names, name)
	}
	return names
}

// PropertyTypes returns property name → declared type.
func PropertyTypes(schemaDoc map[string]interface{}) map[string]string {
	types := map[string]string{}
	for name, propSchema := range properties(schemaDoc) {
		if typ, ok := propSchema["type"].(string); ok {
			types[name] = typ
		}
	}
	return types
}

func properties(schemaDoc map[string]interface{}) map[string]map[string]interface{} {
	out := map[string]map[string]interface{}{}
	if schemaDoc == nil {
		return out
	}
	props, ok := schemaDoc["properties"].(map[string]interface{})
	if !ok {
		return out
	}
	for name, raw := range props {
		if propSchema, ok := raw.(map[string]interface{}); ok {
			out[name] = propSchema
		}
	}
	return out
}
