package actions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler is the uniform signature for in-process tool implementations.
// The input map has already passed schema validation; meta carries the
// per-call execution context fields the handler may care about.
type Handler func(ctx context.Context, input map[string]interface{}, meta Meta) (interface{}, error)

// Meta is the slice of the execution context visible to action handlers.
type Meta struct {
	OrganizationID string
	UserID         string
	Source         string
	TestMode       bool
}

// Result lets a handler control the translated status explicitly. A
// handler returning *Result maps Success to 200/400; any other return
// value is wrapped as a 200 success.
type Result struct {
	Success bool
	Data    interface{}
	Error   string
}

// Registry is the name-to-handler table for INTERNAL_ACTION tools,
// populated at application startup.
type Registry struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a tool name. Re-registering a name is an
// error; catalog names are unique and handlers must mirror that.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("action name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("action handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("action %s is already registered", name)
	}
	r.handlers[name] = handler

	log.Debug().Str("action", name).Msg("Action registered")
	return nil
}

// Lookup returns the handler for a name, or nil when none is registered.
func (r *Registry) Lookup(name string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name]
}

// Names returns all registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
