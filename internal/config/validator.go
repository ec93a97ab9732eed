package config

import (
	"fmt"
	"regexp"

	"github.com/robfig/cron/v3"
)

var toolNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateToolName validates a tool name
func (v *Validator) ValidateToolName(name string) error {
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if !toolNamePattern.MatchString(name) {
		return fmt.Errorf("invalid tool name %q (must be lowercase snake_case)", name)
	}
	return nil
}

// ValidateSchedule validates a cron schedule expression, including the
// @-descriptors like @midnight.
func (v *Validator) ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule cannot be empty")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// IsValidLogLevel checks a zerolog level name.
func IsValidLogLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
		return true
	}
	return false
}
