package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Result is the outcome of validating input against a tool's parameter schema.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator validates untyped input against JSON-Schema-shaped parameter
// definitions. Compiled schemas are cached by content hash; tool parameter
// blobs are stored opaquely in the catalog and re-validated on every call,
// so compilation is the hot part worth caching.
type Validator struct {
	compiled map[string]*gojsonschema.Schema
	mu       sync.RWMutex
}

// NewValidator creates a new Validator with an empty compilation cache.
func NewValidator() *Validator {
	return &Validator{
		compiled: make(map[string]*gojsonschema.Schema),
	}
}

// Validate checks data against the given schema. A malformed schema is a
// validation failure, never a panic. Error strings are path-qualified,
// using "root" for top-level violations.
func (v *Validator) Validate(schemaDoc map[string]interface{}, data interface{}) Result {
	if schemaDoc == nil {
		// No declared parameters means any input passes.
		return Result{Valid: true}
	}

	compiled, err := v.compile(schemaDoc)
	if err != nil {
		return Result{
			Valid:  false,
			Errors: []string{fmt.Sprintf("root: invalid parameter schema: %v", err)},
		}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return Result{
			Valid:  false,
			Errors: []string{fmt.Sprintf("root: %v", err)},
		}
	}

	if result.Valid() {
		return Result{Valid: true}
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		field := violation.Field()
		if field == "(root)" {
			field = "root"
		}
		errs = append(errs, fmt.Sprintf("%s: %s", field, violation.Description()))
	}
	return Result{Valid: false, Errors: errs}
}

// compile returns a cached compiled schema, compiling and caching on miss.
func (v *Validator) compile(schemaDoc map[string]interface{}) (*gojsonschema.Schema, error) {
	key, err := schemaKey(schemaDoc)
	if err != nil {
		return nil, err
	}

	v.mu.RLock()
	compiled, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaDoc))
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()

	return compiled, nil
}

// CacheSize returns the number of compiled schemas held.
func (v *Validator) CacheSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.compiled)
}

// schemaKey derives a stable cache key from the schema content.
// json.Marshal sorts map keys, so the encoding is deterministic.
func schemaKey(schemaDoc map[string]interface{}) (string, error) {
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return "", fmt.Errorf("schema is not JSON-encodable: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
