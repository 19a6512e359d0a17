package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatesInRangeExcludesCheckout(t *testing.T) {
	in := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	days := DatesInRange(in, out)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-06-10", days[0].Format(DateLayout))
	assert.Equal(t, "2025-06-12", days[2].Format(DateLayout))
	assert.Equal(t, 3, NightsBetween(in, out))
}

func TestDatesInRangeEmptyWhenZeroNights(t *testing.T) {
	d := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, DatesInRange(d, d))
	assert.Equal(t, 0, NightsBetween(d, d))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-07-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2025-07-01T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("01/07/2025")
	assert.Error(t, err)
}

func TestMonthBoundsRollsYear(t *testing.T) {
	start, end := MonthBounds(12, 2025)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		amount string
		places int
		want   string
	}{
		{"1250000", 0, "1 250 000"},
		{"12.5", 2, "12.50"},
		{"999", 0, "999"},
		{"1000.456", 2, "1 000.46"},
		{"-45000", 0, "-45 000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(decimal.RequireFromString(tc.amount), tc.places), tc.amount)
	}
}
