package exporter

import (
	"fmt"
	"math"
	"strconv"

	"engageboard/pkg/contracts/domain"
)

// NotAvailable is shown in place of missing values
const NotAvailable = "N/A"

// FormatEngagement renders an engagement total in millions with two decimals
func FormatEngagement(v float64) string {
	return fmt.Sprintf("%.2fM", v/1_000_000)
}

// FormatPercent renders a percentage rounded to a whole number
func FormatPercent(v domain.NullFloat) string {
	if !v.Valid {
		return NotAvailable
	}
	return fmt.Sprintf("%d%%", int64(math.Round(v.Float64)))
}

// FormatNullInt renders an optional integer
func FormatNullInt(v domain.NullInt) string {
	if !v.Valid {
		return NotAvailable
	}
	return strconv.FormatInt(v.Int64, 10)
}

// formatFloat keeps full precision without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
