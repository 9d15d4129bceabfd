package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Accepted date layouts, tried in order. Month-first wins for ambiguous slashed dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	time.RFC3339Nano,
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
}

// Excel serial day numbers outside this window are treated as plain numbers, not dates.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// CoerceNumeric parses a cell as a number. Surrounding whitespace and thousands
// separators are dropped. Blank, unparseable, NaN and infinite values read as 0.
func CoerceNumeric(raw string) float64 {
	v, ok := parseNumeric(raw)
	if !ok {
		return 0
	}
	return v
}

// CoerceCount parses a count cell. Negative values are clamped to 0.
func CoerceCount(raw string) float64 {
	v := CoerceNumeric(raw)
	if v < 0 {
		return 0
	}
	return v
}

// parseNumeric reports whether raw held a usable finite number
func parseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CoerceDate parses a cell as a calendar day in UTC. The time of day is dropped.
// Excel serial day numbers are accepted alongside the textual layouts.
func CoerceDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= minExcelSerial && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return truncateDay(t), true
			}
		}
	}
	return time.Time{}, false
}

// truncateDay keeps the calendar day as written in the source, whatever its offset
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
