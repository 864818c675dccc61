package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"currency with thousands", "R$ 1.234,56", 1234.56},
		{"plain comma decimal", "12,00", 12.00},
		{"percent", "8,06%", 8.06},
		{"percent with space", " 9,5 % ", 9.5},
		{"integer", "100", 100},
		{"large currency", "R$ 163,34", 163.34},
		{"thousands only", "1.000", 1000},
		{"empty", "", 0.0},
		{"whitespace", "   ", 0.0},
		{"garbage", "abc", 0.0},
		{"nan literal", "NaN", 0.0},
		{"dash placeholder", "-", 0.0},
		{"negative", "-1,50", -1.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseDecimal(tt.raw), 1e-9)
		})
	}
}

func TestNormalizeYield(t *testing.T) {
	assert.InDelta(t, 0.095, NormalizeYield(9.5), 1e-9)
	assert.InDelta(t, 0.085, NormalizeYield(8.5), 1e-9)
	assert.InDelta(t, 0.12, NormalizeYield(0.12), 1e-9)
	assert.Equal(t, 0.0, NormalizeYield(0))
	assert.Equal(t, 0.0, NormalizeYield(-3))

	// Boundary: a literal 1.0 is ambiguous (1.0% vs 100%). Values above the
	// ceiling are never valid fractions, so exactly 1.0 stays a fraction and
	// 1.01 is read as a percentage.
	assert.InDelta(t, 1.0, NormalizeYield(1.0), 1e-9)
	assert.InDelta(t, 0.0101, NormalizeYield(1.01), 1e-9)
}

func TestSanitizeRatio(t *testing.T) {
	assert.Equal(t, 0.0, SanitizeRatio(math.NaN()))
	assert.Equal(t, 0.0, SanitizeRatio(math.Inf(1)))
	assert.Equal(t, 0.0, SanitizeRatio(math.Inf(-1)))
	assert.Equal(t, 0.0, SanitizeRatio(-0.5))
	assert.InDelta(t, 1.0909, SanitizeRatio(1.0909), 1e-9)
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatBRL(1234.56))
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 1.000.000,00", FormatBRL(1000000))
	assert.Equal(t, "-R$ 12,30", FormatBRL(-12.3))
	assert.Equal(t, "R$ 999,99", FormatBRL(999.99))
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "9,50%", FormatPct(0.095))
	assert.Equal(t, "0,00%", FormatPct(0))
}
