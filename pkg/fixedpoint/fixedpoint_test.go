package fixedpoint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name        string
		units       int64
		subdivision int32
		expected    string
	}{
		{"cents to dollars", 10000, 2, "100"},
		{"satoshi to btc", 200000, 8, "0.002"},
		{"whole units", 42, 0, "42"},
		{"negative amount", -1550, 2, "-15.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ToDecimal(tt.units, tt.subdivision)
			assert.True(t, d.Equal(decimal.RequireFromString(tt.expected)),
				"got %s, want %s", d, tt.expected)
		})
	}
}

func TestToUnits_RoundHalfUp(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		subdivision int32
		expected    int64
	}{
		{"exact", "100.00", 2, 10000},
		{"half rounds up", "100.005", 2, 10001},
		{"below half rounds down", "100.004", 2, 10000},
		{"negative half rounds away from zero", "-100.005", 2, -10001},
		{"btc precision", "0.00200000", 8, 200000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.expected, ToUnits(d, tt.subdivision))
		})
	}
}

func TestRound_Deterministic(t *testing.T) {
	d := decimal.RequireFromString("0.000000005")

	first := Round(d, 8)
	second := Round(d, 8)

	assert.True(t, first.Equal(second), "rounding must be deterministic")
	assert.Equal(t, "0.00000001", first.StringFixed(8))
}

func TestRoundTrip(t *testing.T) {
	// Converting units to decimal and back must be lossless.
	units := int64(123456789)
	assert.Equal(t, units, ToUnits(ToDecimal(units, 8), 8))
	assert.Equal(t, units, ToUnits(ToDecimal(units, 2), 2))
}
