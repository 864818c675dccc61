package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// YieldFractionCeiling is the boundary used to decide whether a raw yield value
// from the feed is already a fraction or a percentage. Values above it are
// treated as percentages and divided by 100: a trailing yield above 100% of
// price is not a plausible fraction, while "9,5" in the sheet always means
// 9.5%. A literal 1.0 is kept as a fraction.
const YieldFractionCeiling = 1.0

// ParseDecimal converts a locale-formatted monetary or percentage string to a
// float64. It strips the currency symbol, percent sign and whitespace, drops
// thousands separators and converts the decimal comma to a decimal point.
//
// Blank, null-ish and unparseable input yields 0.0 — the sheet feed is
// user-maintained and frequently has empty cells, and downstream arithmetic
// treats zero as "no data". This sentinel is deliberate; callers must not
// interpret 0.0 as an error.
func ParseDecimal(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0.0
	}
	upper := strings.ToUpper(s)
	if upper == "NAN" || upper == "N/A" || upper == "-" {
		return 0.0
	}

	r := strings.NewReplacer("R$", "", "%", "", " ", "", " ", "")
	s = r.Replace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return v
}

// NormalizeYield maps a raw feed yield to a 0–1 fraction. Values above
// YieldFractionCeiling are assumed to be percentages ("9,5" → 0.095);
// anything at or below it is assumed to already be a fraction.
func NormalizeYield(v float64) float64 {
	if v <= 0 {
		return 0.0
	}
	if v > YieldFractionCeiling {
		return v / 100.0
	}
	return v
}

// SanitizeRatio normalizes a computed ratio before it is surfaced: NaN,
// infinities and negative intermediates all collapse to 0.0 so consumers
// never see a non-finite value.
func SanitizeRatio(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0.0
	}
	return v
}

// FormatBRL renders a value as Brazilian currency ("R$ 1.234,56").
func FormatBRL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := strconv.FormatFloat(v, 'f', 2, 64)
	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var sb strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(d)
	}

	out := fmt.Sprintf("R$ %s,%s", sb.String(), fracPart)
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPct renders a fraction as a percentage with two decimals ("0.095" → "9,50%").
func FormatPct(v float64) string {
	s := strconv.FormatFloat(v*100, 'f', 2, 64)
	return strings.ReplaceAll(s, ".", ",") + "%"
}
