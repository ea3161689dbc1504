package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"cafe-pos-api/apperr"
)

const dateLayout = "2006-01-02"

// maxRangeDays caps dashboard ranges so the per-day series stays bounded.
const maxRangeDays = 366

var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

// ParseBound reads a date or timestamp. Values without a zone are taken as UTC.
func ParseBound(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q, expected YYYY-MM-DD or RFC 3339", s)
}

// Range is a closed UTC interval [Start, End].
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseRange normalizes both bounds to UTC. A date-only bound means the start
// of that day, so "2025-01-01".."2025-01-02" runs from Jan 1 00:00 through
// Jan 2 00:00 inclusive. The same date given twice covers that whole day.
func ParseRange(start, end string) (Range, error) {
	if start == "" || end == "" {
		return Range{}, apperr.Validation("start_date and end_date parameters are required")
	}
	s, err := ParseBound(start)
	if err != nil {
		return Range{}, apperr.Validation("start_date: " + err.Error())
	}
	e, err := ParseBound(end)
	if err != nil {
		return Range{}, apperr.Validation("end_date: " + err.Error())
	}
	if e.Before(s) {
		return Range{}, apperr.Validation("end_date must not be before start_date")
	}
	if e.Equal(s) && isDateOnly(start) && isDateOnly(end) {
		e = calendar(s).EndOfDay()
	}
	if e.Sub(s) > maxRangeDays*24*time.Hour {
		return Range{}, apperr.Validation(fmt.Sprintf("date range must not exceed %d days", maxRangeDays))
	}
	return Range{Start: s, End: e}, nil
}

func isDateOnly(s string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(s))
	return err == nil
}

// Previous is the equally long window immediately before r, half-open at r.Start.
func (r Range) Previous() (time.Time, time.Time) {
	return r.Start.Add(-r.End.Sub(r.Start)), r.Start
}

// Days lists each calendar day touched by r.
func (r Range) Days() []string {
	var days []string
	for d := dayStart(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dateLayout))
	}
	return days
}

func dayStart(t time.Time) time.Time {
	return calendar(t).BeginningOfDay()
}

func calendar(t time.Time) *now.Now {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: time.UTC}
	return cfg.With(t.UTC())
}

// ParseDay returns [day, next day) for a YYYY-MM-DD string; empty means today.
func ParseDay(s string, today time.Time) (time.Time, time.Time, error) {
	if s == "" {
		d := dayStart(today)
		return d, d.AddDate(0, 0, 1), nil
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("date must be formatted as YYYY-MM-DD")
	}
	return d, d.AddDate(0, 0, 1), nil
}
