package weekend

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for every window
const DateLayout = "2006-01-02"

// Window is one Friday-to-Sunday travel pair
type Window struct {
	Depart string `json:"depart_date"`
	Return string `json:"return_date"`
}

func (w Window) String() string {
	return w.Depart + "→" + w.Return
}

// ParseStart parses an explicit --start value. Any weekday is accepted; month
// and day must be zero-padded.
func ParseStart(value string) (time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("start date must be YYYY-MM-DD: %w", err)
	}
	return start, nil
}

// ResolveStart returns the explicit start date verbatim when given, otherwise
// the first Friday on or after the midnight of now.
func ResolveStart(explicit string, now time.Time) (time.Time, error) {
	if explicit != "" {
		return ParseStart(explicit)
	}
	return NextFriday(midnight(now)), nil
}

// NextFriday returns t if it is a Friday, else the following Friday
func NextFriday(t time.Time) time.Time {
	offset := (int(time.Friday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset)
}

// Windows builds weeks consecutive pairs starting at start. A non-positive
// count yields an empty slice.
func Windows(start time.Time, weeks int) []Window {
	if weeks <= 0 {
		return []Window{}
	}

	windows := make([]Window, 0, weeks)
	for i := 0; i < weeks; i++ {
		depart := start.AddDate(0, 0, 7*i)
		windows = append(windows, Window{
			Depart: depart.Format(DateLayout),
			Return: depart.AddDate(0, 0, 2).Format(DateLayout),
		})
	}
	return windows
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
