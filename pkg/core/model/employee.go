package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location is a WGS84 coordinate pair
type Location struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// Interval is a half-open time range [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Hours returns the length of the interval in hours
func (i Interval) Hours() float64 {
	return i.End.Sub(i.Start).Hours()
}

// Overlaps reports whether two half-open intervals share any instant
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Certification is a single certification held by an employee
type Certification struct {
	Type     string
	Grade    Grade
	Expiry   time.Time
	Verified bool
}

// ValidOn reports whether the certification is verified and expires strictly after the given date.
// Only calendar dates are compared.
func (c Certification) ValidOn(date time.Time) bool {
	if !c.Verified {
		return false
	}
	return dateKey(c.Expiry) > dateKey(date)
}

// AvailabilityWindow is a declared window for one calendar date.
// Start and End use "15:04"; End <= Start means the window runs past midnight,
// so "00:00"-"00:00" covers the whole day.
type AvailabilityWindow struct {
	Date      string `validate:"required,datetime=2006-01-02"`
	Start     string `validate:"required,datetime=15:04"`
	End       string `validate:"required,datetime=15:04"`
	Available bool
}

// AvailabilityRule is a recurring availability window expressed as an RRULE
// (e.g. "FREQ=WEEKLY;BYDAY=MO,WE,FR"). It is expanded into AvailabilityWindows
// over the optimisation window before solving.
type AvailabilityRule struct {
	RRule     string `validate:"required"`
	Start     string `validate:"required,datetime=15:04"`
	End       string `validate:"required,datetime=15:04"`
	Available bool
}

// Employee is a fully materialised guard record supplied by the persistence layer
type Employee struct {
	ID     string `validate:"required"`
	OrgID  string
	Name   string
	Skills []string

	Certifications []Certification

	// MaxHoursWeek is the employee's weekly cap; 0 means use the configured default
	MaxHoursWeek float64 `validate:"gte=0"`

	// HomeLocation is nil when the employee's coordinates are unknown
	HomeLocation *Location

	// Region is the employee's home region; empty marks a floater available to every partition
	Region string

	HourlyRate decimal.Decimal

	Availability      []AvailabilityWindow `validate:"dive"`
	AvailabilityRules []AvailabilityRule   `validate:"dive"`

	// CommittedHours are hours already committed in the week the run starts in
	CommittedHours float64 `validate:"gte=0"`

	// CommittedShifts are shifts already worked or booked outside this run
	CommittedShifts []Interval
}

// HasSkill reports whether the employee holds the skill tag (case-insensitive)
func (e *Employee) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if equalFold(s, skill) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the employee
func (e *Employee) Clone() *Employee {
	c := *e
	c.Skills = append([]string(nil), e.Skills...)
	c.Certifications = append([]Certification(nil), e.Certifications...)
	c.Availability = append([]AvailabilityWindow(nil), e.Availability...)
	c.AvailabilityRules = append([]AvailabilityRule(nil), e.AvailabilityRules...)
	c.CommittedShifts = append([]Interval(nil), e.CommittedShifts...)
	if e.HomeLocation != nil {
		loc := *e.HomeLocation
		c.HomeLocation = &loc
	}
	return &c
}
