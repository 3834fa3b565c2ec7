package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrDateParse marks a raw date string that does not resolve to a real
// calendar date. Per-record, never fatal: the field becomes missing.
var ErrDateParse = errors.New("date parse failed")

var dateRe = regexp.MustCompile(`^\s*(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})\s*$`)

// ParseDate parses a raw date in day/month/year order, or month/day/year
// order when swapMonthDay is set (the INNLINK2WAY quirk). Impossible dates
// are rejected rather than wrapped: 31/04/2025 is an error, not 1 May.
func ParseDate(raw string, swapMonthDay bool) (time.Time, error) {
	m := dateRe.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, raw)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if swapMonthDay {
		day, month = month, day
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %q: month %d out of range", ErrDateParse, raw, month)
	}
	if day < 1 || day > daysInMonth(year, month) {
		return time.Time{}, fmt.Errorf("%w: %q: day %d invalid for month %d", ErrDateParse, raw, day, month)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func daysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC).Day()
}
