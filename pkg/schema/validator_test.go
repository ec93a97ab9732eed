package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectSchema(properties map[string]interface{}, required []interface{}) map[string]interface{} {
	doc := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func TestValidator_Validate_Success(t *testing.T) {
	v := NewValidator()

	doc := objectSchema(map[string]interface{}{
		"msg": map[string]interface{}{"type": "string"},
	}, []interface{}{"msg"})

	result := v.Validate(doc, map[string]interface{}{"msg": "hi"})
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidator_Validate_MissingRequired(t *testing.T) {
	v := NewValidator()

	doc := objectSchema(map[string]interface{}{
		"msg": map[string]interface{}{"type": "string"},
	}, []interface{}{"msg"})

	result := v.Validate(doc, map[string]interface{}{})
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "root: ")
	assert.Contains(t, result.Errors[0], "msg")
}

func TestValidator_Validate_WrongType(t *testing.T) {
	v := NewValidator()

	doc := objectSchema(map[string]interface{}{
		"count": map[string]interface{}{"type": "integer"},
	}, nil)

	result := v.Validate(doc, map[string]interface{}{"count": "three"})
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "count: ")
}

func TestValidator_Validate_DataNotObject(t *testing.T) {
	v := NewValidator()

	doc := objectSchema(map[string]interface{}{}, nil)

	result := v.Validate(doc, "not an object")
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "root: ")
}

func TestValidator_Validate_EmptyProperties(t *testing.T) {
	v := NewValidator()

	doc := objectSchema(map[string]interface{}{}, nil)

	result := v.Validate(doc, map[string]interface{}{"anything": true})
	assert.True(t, result.Valid)
}

func TestValidator_Validate_MalformedSchema(t *testing.T) {
	v := NewValidator()

	doc := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"x": map[string]interface{}{"type": 42}},
	}

	result := v.Validate(doc, map[string]interface{}{})
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "root: invalid parameter schema")
}

func TestValidator_Validate_NilSchemaAllowsAnything(t *testing.T) {
	v := NewValidator()

	result := v.Validate(nil, map[string]interface{}{"free": "form"})
	assert.True(t, result.Valid)
}

func TestValidator_CompilationCache(t *testing.T) {
	v := NewValidator()

	doc := objectSchema(map[string]interface{}{
		"msg": map[string]interface{}{"type": "string"},
	}, nil)

	v.Validate(doc, map[string]interface{}{"msg": "a"})
	v.Validate(doc, map[string]interface{}{"msg": "b"})
	assert.Equal(t, 1, v.CacheSize())

	other := objectSchema(map[string]interface{}{
		"n": map[string]interface{}{"type": "number"},
	}, nil)
	v.Validate(other, map[string]interface{}{"n": 1.0})
	assert.Equal(t, 2, v.CacheSize())
}

func TestValidator_DefaultValueSatisfiesSchema(t *testing.T) {
	v := NewValidator()

	doc := objectSchema(map[string]interface{}{
		"name":   map[string]interface{}{"type": "string"},
		"count":  map[string]interface{}{"type": "integer", "default": 5},
		"active": map[string]interface{}{"type": "boolean"},
		"tags":   map[string]interface{}{"type": "array"},
	}, []interface{}{"name", "count"})

	instance := GenerateDefaultValue(doc)
	result := v.Validate(doc, instance)
	assert.True(t, result.Valid, "default instance should satisfy the schema: %v", result.Errors)
}
