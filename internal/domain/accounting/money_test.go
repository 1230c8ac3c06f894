package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountMinor(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected int64
		wantErr  bool
	}{
		{"whole number", "100", 10000, false},
		{"two decimals", "50.00", 5000, false},
		{"single decimal", "19.9", 1990, false},
		{"sub-cent rounds half away from zero", "0.005", 1, false},
		{"sub-cent rounds down", "0.004", 0, false},
		{"zero", "0.00", 0, false},
		{"negative", "-12.50", -1250, false},
		{"empty string", "", 0, true},
		{"not a number", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountMinor(tt.amount)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertToBaseMinor(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		expected int64
	}{
		{"base currency passes through", 12345, "NOK", 12345},
		{"zero passes through", 0, "NOK", 0},
		{"usd rate", 10000, "USD", 101100},
		{"usd rounding", 333, "USD", 3367}, // 333 * 10.11 = 3366.63
		{"eur rate", 10000, "EUR", 112000},
		{"gbp rate", 10000, "GBP", 130000},
		{"unknown currency converts at 1.0", 5000, "SEK", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertToBaseMinor(tt.amount, tt.currency))
		})
	}
}

func TestConvertToBaseMinor_BasePassthroughProperty(t *testing.T) {
	for _, amount := range []int64{-99999, -1, 0, 1, 42, 7919, 1 << 40} {
		assert.Equal(t, amount, ConvertToBaseMinor(amount, "NOK"))
	}
}
