package weekend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextFriday(t *testing.T) {
	cases := []struct {
		name   string
		now    time.Time
		expect time.Time
	}{
		{
			name:   "monday",
			now:    time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
			expect: time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "friday stays",
			now:    time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC),
			expect: time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "saturday rolls to next week",
			now:    time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC),
			expect: time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "across month end",
			now:    time.Date(2025, time.January, 30, 0, 0, 0, 0, time.UTC),
			expect: time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expect, NextFriday(test.now))
		})
	}
}

func TestResolveStart(t *testing.T) {
	now := time.Date(2025, time.March, 5, 17, 42, 10, 0, time.Local)

	start, err := ResolveStart("", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.Local), start)

	// explicit dates are used verbatim even when not a Friday
	start, err = ResolveStart("2025-03-04", now)
	require.NoError(t, err)
	require.Equal(t, time.Tuesday, start.Weekday())
	require.Equal(t, "2025-03-04", start.Format(DateLayout))

	_, err = ResolveStart("03/04/2025", now)
	require.Error(t, err)
}

func TestParseStartRequiresZeroPadding(t *testing.T) {
	for _, value := range []string{"2025-3-7", "2025-03-7", "2025-3-07", "25-03-07"} {
		_, err := ParseStart(value)
		require.Error(t, err, value)
	}

	start, err := ParseStart("2025-03-07")
	require.NoError(t, err)
	require.Equal(t, time.Friday, start.Weekday())
}

func TestWindows(t *testing.T) {
	starts := []time.Time{
		time.Date(2025, time.March, 7, 0, 0, 0, 0, time.Local),
		time.Date(2025, time.October, 31, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.February, 27, 0, 0, 0, 0, time.Local),
	}

	for _, start := range starts {
		windows := Windows(start, 60)
		require.Len(t, windows, 60)
		require.Equal(t, start.Format(DateLayout), windows[0].Depart)

		for i, w := range windows {
			depart, err := time.Parse(DateLayout, w.Depart)
			require.NoError(t, err)
			ret, err := time.Parse(DateLayout, w.Return)
			require.NoError(t, err)
			require.Equal(t, depart.AddDate(0, 0, 2), ret)

			if i > 0 {
				prev, err := time.Parse(DateLayout, windows[i-1].Depart)
				require.NoError(t, err)
				require.Equal(t, prev.AddDate(0, 0, 7), depart)
			}
		}
	}
}

func TestWindowsEmpty(t *testing.T) {
	start := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.Local)
	require.Empty(t, Windows(start, 0))
	require.Empty(t, Windows(start, -3))
}

func TestWindowsLeapYear(t *testing.T) {
	windows := Windows(time.Date(2028, time.February, 25, 0, 0, 0, 0, time.Local), 2)
	require.Equal(t, []Window{
		{Depart: "2028-02-25", Return: "2028-02-27"},
		{Depart: "2028-03-03", Return: "2028-03-05"},
	}, windows)
}
