package report

import (
	"math"
	"strconv"
)

// DefaultDecimals is the precision simulation figures are presented with.
const DefaultDecimals = 4

// Round rounds half away from zero to decimals places.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Format renders v with exactly decimals places.
func Format(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(Round(v, decimals), 'f', decimals, 64)
}

// FormatAmount renders a money amount, or "—" for zero.
func FormatAmount(v float64) string {
	if v == 0 {
		return "—"
	}
	return "¥" + Format(v, 2)
}

// FormatPercent renders a percentage with decimals places.
func FormatPercent(v float64, decimals int) string {
	return Format(v, decimals) + "%"
}
