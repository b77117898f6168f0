package model

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Bounds resolves the window to an absolute interval in loc
func (w AvailabilityWindow) Bounds(loc *time.Location) (Interval, error) {
	day, err := time.ParseInLocation(dateLayout, w.Date, loc)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid availability date %q: %w", w.Date, err)
	}
	start, err := clockOffset(w.Start)
	if err != nil {
		return Interval{}, err
	}
	end, err := clockOffset(w.End)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		end += 24 * time.Hour
	}
	return Interval{Start: day.Add(start), End: day.Add(end)}, nil
}

func clockOffset(s string) (time.Duration, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ExpandRules materialises recurring availability rules into dated windows
// for every occurrence between from and to (inclusive, by calendar date).
func ExpandRules(rules []AvailabilityRule, from, to time.Time) ([]AvailabilityWindow, error) {
	var windows []AvailabilityWindow
	start := civilDate(from)
	end := civilDate(to).Add(24*time.Hour - time.Nanosecond)

	for i, rule := range rules {
		r, err := rrule.StrToRRule(rule.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in availability rule %d: %w", i, err)
		}
		r.DTStart(start)

		for _, occurrence := range r.Between(start, end, true) {
			windows = append(windows, AvailabilityWindow{
				Date:      occurrence.Format(dateLayout),
				Start:     rule.Start,
				End:       rule.End,
				Available: rule.Available,
			})
		}
	}
	return windows, nil
}

// MaterializeAvailability returns a copy of emp whose recurring rules have been
// expanded into dated windows between from and to. The input is not modified.
func MaterializeAvailability(emp *Employee, from, to time.Time) (*Employee, error) {
	c := emp.Clone()
	if len(c.AvailabilityRules) == 0 {
		return c, nil
	}
	windows, err := ExpandRules(c.AvailabilityRules, from, to)
	if err != nil {
		return nil, fmt.Errorf("employee %q: %w", emp.ID, err)
	}
	c.Availability = append(c.Availability, windows...)
	c.AvailabilityRules = nil
	return c, nil
}
