package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateDayFirst(t *testing.T) {
	got, err := ParseDate("04/10/2025", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.October, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateMonthDaySwap(t *testing.T) {
	// The two-way interface sends month-first dates: 04/10/2025 is April 10.
	got, err := ParseDate("04/10/2025", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateAcceptsDashes(t *testing.T) {
	got, err := ParseDate("7-3-2025", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateRejectsImpossibleDates(t *testing.T) {
	cases := []string{
		"31/04/2025", // April has 30 days
		"29/02/2025", // not a leap year
		"01/13/2025", // month out of range
		"00/05/2025",
		"2025-10-04", // year-first not a raw email form
		"not a date",
		"",
	}
	for _, raw := range cases {
		_, err := ParseDate(raw, false)
		assert.ErrorIs(t, err, ErrDateParse, "raw=%q", raw)
	}
}

func TestParseDateLeapDay(t *testing.T) {
	got, err := ParseDate("29/02/2024", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateSwapValidatesSwappedValues(t *testing.T) {
	// 13/10/2025 swapped would be month 13.
	_, err := ParseDate("13/10/2025", true)
	assert.ErrorIs(t, err, ErrDateParse)
}
