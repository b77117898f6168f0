// Package filestore reads roster problems from YAML files and writes rosters back
// as YAML. It serves offline runs and fixtures where no database is available.
package filestore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/guard-roster/pkg/core/model"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Problem is the on-disk layout of a roster problem file
type Problem struct {
	Sites     []SiteRecord     `yaml:"sites"`
	Employees []EmployeeRecord `yaml:"employees"`
	Shifts    []ShiftRecord    `yaml:"shifts"`
}

// LocationRecord is a coordinate pair
type LocationRecord struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// SiteRecord is a site entry
type SiteRecord struct {
	ID       string          `yaml:"id"`
	OrgID    string          `yaml:"org_id"`
	Name     string          `yaml:"name"`
	Region   string          `yaml:"region"`
	Location *LocationRecord `yaml:"location"`
}

// CertificationRecord is a certification entry; Expiry uses YYYY-MM-DD
type CertificationRecord struct {
	Type     string `yaml:"type"`
	Grade    string `yaml:"grade"`
	Expiry   string `yaml:"expiry"`
	Verified bool   `yaml:"verified"`
}

// WindowRecord is a dated availability window
type WindowRecord struct {
	Date      string `yaml:"date"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Available *bool  `yaml:"available"`
}

// RuleRecord is a recurring availability window
type RuleRecord struct {
	RRule     string `yaml:"rrule"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Available *bool  `yaml:"available"`
}

// IntervalRecord is an absolute time range; RFC 3339 or "YYYY-MM-DD HH:MM" in the store's zone
type IntervalRecord struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// EmployeeRecord is an employee entry
type EmployeeRecord struct {
	ID                string                `yaml:"id"`
	OrgID             string                `yaml:"org_id"`
	Name              string                `yaml:"name"`
	Skills            []string              `yaml:"skills"`
	Certifications    []CertificationRecord `yaml:"certifications"`
	MaxHoursWeek      float64               `yaml:"max_hours_week"`
	HomeLocation      *LocationRecord       `yaml:"home_location"`
	Region            string                `yaml:"region"`
	HourlyRate        float64               `yaml:"hourly_rate"`
	Availability      []WindowRecord        `yaml:"availability"`
	AvailabilityRules []RuleRecord          `yaml:"availability_rules"`
	CommittedHours    float64               `yaml:"committed_hours"`
	CommittedShifts   []IntervalRecord      `yaml:"committed_shifts"`
}

// ShiftRecord is a shift entry referencing a site by ID
type ShiftRecord struct {
	ID               string `yaml:"id"`
	SiteID           string `yaml:"site_id"`
	Start            string `yaml:"start"`
	End              string `yaml:"end"`
	RequiredSkill    string `yaml:"required_skill"`
	RequiredCertType string `yaml:"required_cert_type"`
	RequiredGrade    string `yaml:"required_grade"`
	Headcount        int    `yaml:"headcount"`
	MealBreak        bool   `yaml:"meal_break"`
	MealBreakMinutes int    `yaml:"meal_break_minutes"`
	IsOvertime       bool   `yaml:"is_overtime"`
}

// ParseProblem decodes a problem file and resolves it into model records in loc
func ParseProblem(data []byte, loc *time.Location) ([]*model.Employee, []*model.Shift, error) {
	var p Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, nil, fmt.Errorf("failed to parse problem file: %w", err)
	}

	sites := make(map[string]model.Site, len(p.Sites))
	for _, s := range p.Sites {
		if _, dup := sites[s.ID]; dup {
			return nil, nil, fmt.Errorf("duplicate site id %q", s.ID)
		}
		sites[s.ID] = model.Site{
			ID:       s.ID,
			OrgID:    s.OrgID,
			Name:     s.Name,
			Region:   s.Region,
			Location: toLocation(s.Location),
		}
	}

	employees := make([]*model.Employee, 0, len(p.Employees))
	for _, rec := range p.Employees {
		emp, err := rec.toModel(loc)
		if err != nil {
			return nil, nil, fmt.Errorf("employee %q: %w", rec.ID, err)
		}
		employees = append(employees, emp)
	}

	shifts := make([]*model.Shift, 0, len(p.Shifts))
	for _, rec := range p.Shifts {
		site, ok := sites[rec.SiteID]
		if !ok {
			return nil, nil, fmt.Errorf("shift %q references unknown site %q", rec.ID, rec.SiteID)
		}
		shift, err := rec.toModel(site, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("shift %q: %w", rec.ID, err)
		}
		shifts = append(shifts, shift)
	}

	return employees, shifts, nil
}

func (rec EmployeeRecord) toModel(loc *time.Location) (*model.Employee, error) {
	emp := &model.Employee{
		ID:             rec.ID,
		OrgID:          rec.OrgID,
		Name:           rec.Name,
		Skills:         rec.Skills,
		MaxHoursWeek:   rec.MaxHoursWeek,
		HomeLocation:   toLocation(rec.HomeLocation),
		Region:         rec.Region,
		HourlyRate:     decimal.NewFromFloat(rec.HourlyRate),
		CommittedHours: rec.CommittedHours,
	}

	for _, c := range rec.Certifications {
		grade, err := model.ParseGrade(c.Grade)
		if err != nil {
			return nil, err
		}
		expiry, err := time.ParseInLocation(dateLayout, c.Expiry, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid certification expiry %q: %w", c.Expiry, err)
		}
		emp.Certifications = append(emp.Certifications, model.Certification{
			Type:     c.Type,
			Grade:    grade,
			Expiry:   expiry,
			Verified: c.Verified,
		})
	}

	for _, w := range rec.Availability {
		emp.Availability = append(emp.Availability, model.AvailabilityWindow{
			Date:      w.Date,
			Start:     w.Start,
			End:       w.End,
			Available: availableOrDefault(w.Available),
		})
	}

	for _, r := range rec.AvailabilityRules {
		emp.AvailabilityRules = append(emp.AvailabilityRules, model.AvailabilityRule{
			RRule:     r.RRule,
			Start:     r.Start,
			End:       r.End,
			Available: availableOrDefault(r.Available),
		})
	}

	for _, iv := range rec.CommittedShifts {
		start, err := parseTime(iv.Start, loc)
		if err != nil {
			return nil, err
		}
		end, err := parseTime(iv.End, loc)
		if err != nil {
			return nil, err
		}
		emp.CommittedShifts = append(emp.CommittedShifts, model.Interval{Start: start, End: end})
	}

	return emp, nil
}

func (rec ShiftRecord) toModel(site model.Site, loc *time.Location) (*model.Shift, error) {
	start, err := parseTime(rec.Start, loc)
	if err != nil {
		return nil, err
	}
	end, err := parseTime(rec.End, loc)
	if err != nil {
		return nil, err
	}
	grade, err := model.ParseGrade(rec.RequiredGrade)
	if err != nil {
		return nil, err
	}

	headcount := rec.Headcount
	if headcount == 0 {
		headcount = 1
	}

	return &model.Shift{
		ID:               rec.ID,
		Site:             site,
		Start:            start,
		End:              end,
		RequiredSkill:    rec.RequiredSkill,
		RequiredCertType: rec.RequiredCertType,
		RequiredGrade:    grade,
		Headcount:        headcount,
		MealBreak:        rec.MealBreak,
		MealBreakMinutes: rec.MealBreakMinutes,
		IsOvertime:       rec.IsOvertime,
	}, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected RFC 3339 or %q", s, dateTimeLayout)
	}
	return t, nil
}

func toLocation(rec *LocationRecord) *model.Location {
	if rec == nil {
		return nil
	}
	return &model.Location{Lat: rec.Lat, Lon: rec.Lon}
}

// Windows are available unless stated otherwise
func availableOrDefault(v *bool) bool {
	return v == nil || *v
}
