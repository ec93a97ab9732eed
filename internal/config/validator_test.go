package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateToolName(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "echo", false},
		{"snake case", "list_clients", false},
		{"with digits", "v2_search", false},
		{"empty", "", true},
		{"uppercase", "ListClients", true},
		{"leading digit", "2fast", true},
		{"spaces", "list clients", true},
		{"dashes", "list-clients", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateToolName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateSchedule("@midnight"))
	assert.NoError(t, v.ValidateSchedule("@every 1h"))
	assert.NoError(t, v.ValidateSchedule("0 3 * * *"))
	assert.Error(t, v.ValidateSchedule(""))
	assert.Error(t, v.ValidateSchedule("every day at noon"))
}

func TestIsValidLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"} {
		assert.True(t, IsValidLogLevel(level), level)
	}
	assert.False(t, IsValidLogLevel("loud"))
	assert.False(t, IsValidLogLevel(""))
}
