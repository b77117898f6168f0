package feasibility

import (
	"fmt"
	"slices"
	"time"

	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// Load is an employee's working load during a run: the intervals they are
// committed to and the hours committed per ISO week.
// A Load belongs to one partition's working copy and is never shared.
type Load struct {
	Intervals []model.Interval
	WeekHours map[string]float64
}

// NewLoad seeds a load from the employee's committed shifts, attributing
// CommittedHours to the ISO week containing weekOf
func NewLoad(emp *model.Employee, weekOf time.Time) *Load {
	load := &Load{
		Intervals: append([]model.Interval(nil), emp.CommittedShifts...),
		WeekHours: make(map[string]float64),
	}
	if emp.CommittedHours > 0 {
		load.WeekHours[WeekKey(weekOf)] = emp.CommittedHours
	}
	load.sort()
	return load
}

// WeekKey identifies the ISO week containing t, e.g. "2024-W52"
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// HoursInWeek returns committed hours in the ISO week containing t
func (l *Load) HoursInWeek(t time.Time) float64 {
	return l.WeekHours[WeekKey(t)]
}

// Add commits a shift to the load
func (l *Load) Add(shift *model.Shift) {
	l.Intervals = append(l.Intervals, shift.Interval())
	l.WeekHours[WeekKey(shift.Start)] += shift.Duration().Hours()
	l.sort()
}

// Remove releases a shift previously added with Add
func (l *Load) Remove(shift *model.Shift) {
	iv := shift.Interval()
	for i, existing := range l.Intervals {
		if existing.Start.Equal(iv.Start) && existing.End.Equal(iv.End) {
			l.Intervals = slices.Delete(l.Intervals, i, i+1)
			break
		}
	}
	key := WeekKey(shift.Start)
	l.WeekHours[key] -= shift.Duration().Hours()
	if l.WeekHours[key] <= 1e-9 {
		delete(l.WeekHours, key)
	}
}

// Clone returns an independent copy of the load
func (l *Load) Clone() *Load {
	c := &Load{
		Intervals: append([]model.Interval(nil), l.Intervals...),
		WeekHours: make(map[string]float64, len(l.WeekHours)),
	}
	for k, v := range l.WeekHours {
		c.WeekHours[k] = v
	}
	return c
}

func (l *Load) sort() {
	slices.SortFunc(l.Intervals, func(a, b model.Interval) int {
		return a.Start.Compare(b.Start)
	})
}
