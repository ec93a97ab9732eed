package executor

import (
	"fmt"
	"os"
	"strings"
)

// BaseURLResolver returns the address for same-deployment HTTP calls.
// It prefers an explicit internal override over anything public-facing
// so server-to-server calls never hit TLS certificate mismatches.
type BaseURLResolver struct {
	configured string
	port       int
}

// NewBaseURLResolver creates a resolver. configured comes from the
// internal_base_url config key and wins when set; port is the local
// server port used for the loopback fallback.
func NewBaseURLResolver(configured string, port int) *BaseURLResolver {
	return &BaseURLResolver{
		configured: strings.TrimSuffix(configured, "/"),
		port:       port,
	}
}

// Resolve picks, in order: the configured internal base URL, the
// INTERNAL_API_URL environment variable, then loopback on the server
// port.
func (r *BaseURLResolver) Resolve() string {
	if r.configured != "" {
		return r.configured
	}
	if env := strings.TrimSuffix(os.Getenv("INTERNAL_API_URL"), "/"); env != "" {
		return env
	}
	port := r.port
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}
