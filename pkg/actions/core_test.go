package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoAction(t *testing.T) {
	out, err := echoAction(context.Background(), map[string]interface{}{"msg": "hi"}, Meta{})
	require.NoError(t, err)

	result, ok := out.(*Result)
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Data)
}

func TestCurrentTimeAction(t *testing.T) {
	out, err := currentTimeAction(context.Background(), nil, Meta{})
	require.NoError(t, err)

	data, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["iso"])
	assert.NotZero(t, data["unix"])
}

func TestMortgageAction(t *testing.T) {
	tests := []struct {
		name        string
		input       map[string]interface{}
		wantSuccess bool
		wantMonthly float64
	}{
		{
			name: "standard 30 year loan",
			input: map[string]interface{}{
				"price":        400000.0,
				"down_payment": 80000.0,
				"rate":         6.0,
				"term_years":   30.0,
			},
			wantSuccess: true,
			wantMonthly: 1918.56,
		},
		{
			name: "zero rate",
			input: map[string]interface{}{
				"price":      120000.0,
				"rate":       0.0,
				"term_years": 10.0,
			},
			wantSuccess: true,
			wantMonthly: 1000.0,
		},
		{
			name:        "missing price",
			input:       map[string]interface{}{"rate": 6.0},
			wantSuccess: false,
		},
		{
			name: "down payment exceeds price",
			input: map[string]interface{}{
				"price":        100000.0,
				"down_payment": 150000.0,
				"rate":         6.0,
			},
			wantSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := mortgageAction(context.Background(), tt.input, Meta{})
			require.NoError(t, err)

			result, ok := out.(*Result)
			require.True(t, ok)
			assert.Equal(t, tt.wantSuccess, result.Success)

			if tt.wantSuccess {
				data := result.Data.(map[string]interface{})
				assert.InDelta(t, tt.wantMonthly, data["monthly_payment"], 0.01)
			} else {
				assert.NotEmpty(t, result.Error)
			}
		})
	}
}

func TestFormatAddressAction(t *testing.T) {
	out, err := formatAddressAction(context.Background(), map[string]interface{}{
		"street": "12 Oak Ln",
		"city":   "Austin",
		"state":  "TX",
		"zip":    "78701",
	}, Meta{})
	require.NoError(t, err)

	result := out.(*Result)
	assert.True(t, result.Success)
	assert.Equal(t, "12 Oak Ln, Austin, TX, 78701", result.Data)

	out, err = formatAddressAction(context.Background(), map[string]interface{}{}, Meta{})
	require.NoError(t, err)
	assert.False(t, out.(*Result).Success)
}
