package actions

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// RegisterCoreActions registers the baseline in-process actions that back
// the built-in INTERNAL_ACTION catalog entries.
func RegisterCoreActions(registry *Registry) error {
	core := map[string]Handler{
		"echo":               echoAction,
		"get_current_time":   currentTimeAction,
		"calculate_mortgage": mortgageAction,
		"format_address":     formatAddressAction,
	}

	for name, handler := range core {
		if err := registry.Register(name, handler); err != nil {
			return fmt.Errorf("failed to register action %s: %w", name, err)
		}
	}
	return nil
}

func echoAction(ctx context.Context, input map[string]interface{}, meta Meta) (interface{}, error) {
	return &Result{Success: true, Data: input["msg"]}, nil
}

func currentTimeAction(ctx context.Context, input map[string]interface{}, meta Meta) (interface{}, error) {
	now := time.Now()
	return map[string]interface{}{
		"iso":       now.Format(time.RFC3339),
		"unix":      now.Unix(),
		"time_zone": now.Location().String(),
	}, nil
}

// mortgageAction computes a standard amortized monthly payment.
func mortgageAction(ctx context.Context, input map[string]interface{}, meta Meta) (interface{}, error) {
	price, ok := toFloat(input["price"])
	if !ok || price <= 0 {
		return &Result{Success: false, Error: "price must be a positive number"}, nil
	}
	rate, ok := toFloat(input["rate"])
	if !ok || rate < 0 {
		return &Result{Success: false, Error: "rate must be a non-negative number"}, nil
	}

	downPayment, _ := toFloat(input["down_payment"])
	if downPayment < 0 || downPayment >= price {
		return &Result{Success: false, Error: "down_payment must be between 0 and price"}, nil
	}

	termYears, ok := toFloat(input["term_years"])
	if !ok || termYears <= 0 {
		termYears = 30
	}

	principal := price - downPayment
	months := termYears * 12

	var monthly float64
	if rate == 0 {
		monthly = principal / months
	} else {
		monthlyRate := rate / 100 / 12
		factor := math.Pow(1+monthlyRate, months)
		monthly = principal * monthlyRate * factor / (factor - 1)
	}

	return &Result{
		Success: true,
		Data: map[string]interface{}{
			"principal":       round2(principal),
			"monthly_payment": round2(monthly),
			"total_paid":      round2(monthly * months),
			"term_months":     int(months),
		},
	}, nil
}

func formatAddressAction(ctx context.Context, input map[string]interface{}, meta Meta) (interface{}, error) {
	parts := []string{}
	for _, key := range []string{"street", "unit", "city", "state", "zip"} {
		if value, ok := input[key].(string); ok && value != "" {
			parts = append(parts, value)
		}
	}
	if len(parts) == 0 {
		return &Result{Success: false, Error: "no address components provided"}, nil
	}
	return &Result{Success: true, Data: strings.Join(parts, ", ")}, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
