package model

import (
	"strings"
	"time"
)

// UnknownRegion is the partition label for sites without a region tag
const UnknownRegion = "Unknown"

const (
	// MealBreakThreshold is the continuous duration after which an unpaid meal break is required
	MealBreakThreshold = 5 * time.Hour

	// MinMealBreak is the shortest meal break that satisfies the requirement
	MinMealBreak = 30 * time.Minute
)

// Site is a client site where shifts are worked
type Site struct {
	ID       string `validate:"required"`
	OrgID    string
	Name     string
	Region   string
	Location *Location
}

// RegionOrUnknown returns the site's region, or UnknownRegion when it has none
func (s Site) RegionOrUnknown() string {
	if strings.TrimSpace(s.Region) == "" {
		return UnknownRegion
	}
	return s.Region
}

// Shift is a time-boxed guarding requirement at a site
type Shift struct {
	ID    string `validate:"required"`
	Site  Site
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required,gtfield=Start"`

	// RequiredSkill is matched case-insensitively; empty always passes
	RequiredSkill string

	// RequiredCertType restricts which certification types satisfy the shift; empty accepts any
	RequiredCertType string

	// RequiredGrade is the minimum PSIRA grade; GradeNone means no grade requirement
	RequiredGrade Grade

	// Headcount is the number of guards needed
	Headcount int `validate:"gte=1"`

	// MealBreak marks that the shift includes an unpaid meal break
	MealBreak        bool
	MealBreakMinutes int `validate:"gte=0"`

	// IsOvertime routes the shift's hours to overtime pay; set by the caller
	IsOvertime bool
}

// Duration is always End - Start
func (s *Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// MealBreakDuration returns the unpaid break deducted from the shift.
// A break is only deducted when one is included and the shift exceeds the threshold,
// and is never shorter than MinMealBreak.
func (s *Shift) MealBreakDuration() time.Duration {
	if !s.MealBreak || s.Duration() <= MealBreakThreshold {
		return 0
	}
	brk := time.Duration(s.MealBreakMinutes) * time.Minute
	if brk < MinMealBreak {
		brk = MinMealBreak
	}
	if brk > s.Duration() {
		brk = s.Duration()
	}
	return brk
}

// PaidHours is the duration minus any meal break
func (s *Shift) PaidHours() float64 {
	return (s.Duration() - s.MealBreakDuration()).Hours()
}

// MissingMealBreak reports shifts long enough to require a break that do not include one
func (s *Shift) MissingMealBreak() bool {
	return !s.MealBreak && s.Duration() > MealBreakThreshold
}

// Interval returns the shift's [Start, End) interval
func (s *Shift) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// Date returns the shift's calendar date at midnight in the shift's location
func (s *Shift) Date() time.Time {
	return civilDate(s.Start)
}

// Clone returns a deep copy of the shift
func (s *Shift) Clone() *Shift {
	c := *s
	if s.Site.Location != nil {
		loc := *s.Site.Location
		c.Site.Location = &loc
	}
	return &c
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dateKey orders calendar dates independently of time zone offsets
func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
