package feasibility

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/guard-roster/pkg/core/model"
)

var sandton = model.Location{Lat: -26.1076, Lon: 28.0567}

func testShift() *model.Shift {
	return &model.Shift{
		ID:            "shift-1",
		Site:          model.Site{ID: "site-1", Region: "Gauteng", Location: &sandton},
		Start:         time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC),
		End:           time.Date(2024, 6, 4, 16, 0, 0, 0, time.UTC),
		RequiredSkill: "armed",
		RequiredGrade: model.GradeC,
		Headcount:     1,
	}
}

func testEmployee() *model.Employee {
	home := model.Location{Lat: -26.10, Lon: 28.05}
	return &model.Employee{
		ID:     "emp-1",
		Skills: []string{"Armed", "patrol"},
		Certifications: []model.Certification{
			{Type: "PSIRA", Grade: model.GradeB, Expiry: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Verified: true},
		},
		HomeLocation: &home,
		Region:       "Gauteng",
		HourlyRate:   decimal.NewFromInt(50),
		Availability: []model.AvailabilityWindow{
			{Date: "2024-06-04", Start: "06:00", End: "18:00", Available: true},
		},
	}
}

func TestEvaluate_AllConstraintsPass(t *testing.T) {
	check := Evaluate(DefaultConfig(), testEmployee(), nil, testShift())

	assert.True(t, check.Feasible)
	assert.Empty(t, check.Reasons)
	assert.Equal(t, "emp-1", check.EmployeeID)
	assert.Equal(t, "shift-1", check.ShiftID)
}

func TestEvaluate_ReportsEveryFailure(t *testing.T) {
	emp := testEmployee()
	emp.Skills = nil
	emp.Certifications = nil
	emp.Availability = nil
	far := model.Location{Lat: -33.9249, Lon: 18.4241}
	emp.HomeLocation = &far

	check := Evaluate(DefaultConfig(), emp, nil, testShift())

	assert.False(t, check.Feasible)
	assert.Equal(t, []string{
		ReasonSkillMismatch,
		ReasonCertificationInvalid,
		ReasonUnavailable,
		ReasonDistanceExceeded,
	}, check.Reasons)
}

func TestSkillConstraint_CaseInsensitiveAndEmpty(t *testing.T) {
	emp := testEmployee()
	shift := testShift()
	cfg := DefaultConfig()

	shift.RequiredSkill = "ARMED"
	assert.True(t, SkillConstraint{}.IsSatisfied(cfg, emp, nil, shift))

	shift.RequiredSkill = "k9"
	assert.False(t, SkillConstraint{}.IsSatisfied(cfg, emp, nil, shift))

	shift.RequiredSkill = ""
	emp.Skills = nil
	assert.True(t, SkillConstraint{}.IsSatisfied(cfg, emp, nil, shift))

	shift.RequiredSkill = "k9"
	cfg.SkipSkillMatching = true
	assert.True(t, SkillConstraint{}.IsSatisfied(cfg, emp, nil, shift))
}

func TestCertificationConstraint_GradeMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	shift.RequiredGrade = model.GradeC

	for _, grade := range []model.Grade{model.GradeA, model.GradeB, model.GradeC} {
		emp := testEmployee()
		emp.Certifications[0].Grade = grade
		assert.True(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift), "grade %s should satisfy C", grade)
	}
	for _, grade := range []model.Grade{model.GradeD, model.GradeE, model.GradeNone} {
		emp := testEmployee()
		emp.Certifications[0].Grade = grade
		assert.False(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift), "grade %s should not satisfy C", grade)
	}
}

func TestCertificationConstraint_ExpiryAndVerification(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()

	emp := testEmployee()
	emp.Certifications[0].Expiry = time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	assert.False(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift), "expiring on the shift date is invalid")

	emp.Certifications[0].Expiry = time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	assert.True(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift))

	emp.Certifications[0].Verified = false
	assert.False(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift))

	cfg.SkipCertificationCheck = true
	assert.True(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift))
}

func TestCertificationConstraint_RequiresAnyValidCertWithoutGrade(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	shift.RequiredGrade = model.GradeNone

	emp := testEmployee()
	assert.True(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift))

	emp.Certifications = nil
	assert.False(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift))
}

func TestCertificationConstraint_RequiredType(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	shift.RequiredCertType = "firearm"

	emp := testEmployee()
	assert.False(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift))

	emp.Certifications = append(emp.Certifications, model.Certification{
		Type: "Firearm", Grade: model.GradeA, Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Verified: true,
	})
	assert.True(t, CertificationConstraint{}.IsSatisfied(cfg, emp, nil, shift))
}

func TestAvailabilityConstraint_Windows(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	c := AvailabilityConstraint{}

	emp := testEmployee()
	emp.Availability = []model.AvailabilityWindow{{Date: "2024-06-04", Start: "08:00", End: "16:00", Available: true}}
	assert.True(t, c.IsSatisfied(cfg, emp, nil, shift), "exact window covers the shift")

	emp.Availability = []model.AvailabilityWindow{{Date: "2024-06-04", Start: "09:00", End: "16:00", Available: true}}
	assert.False(t, c.IsSatisfied(cfg, emp, nil, shift), "partial cover is not enough")

	emp.Availability = []model.AvailabilityWindow{{Date: "2024-06-04", Start: "00:00", End: "00:00", Available: true}}
	assert.True(t, c.IsSatisfied(cfg, emp, nil, shift), "whole-day window")

	emp.Availability = []model.AvailabilityWindow{
		{Date: "2024-06-04", Start: "00:00", End: "00:00", Available: true},
		{Date: "2024-06-04", Start: "12:00", End: "13:00", Available: false},
	}
	assert.False(t, c.IsSatisfied(cfg, emp, nil, shift), "unavailable window overlaps")

	emp.Availability = nil
	assert.False(t, c.IsSatisfied(cfg, emp, nil, shift))

	cfg.SkipAvailabilityCheck = true
	assert.True(t, c.IsSatisfied(cfg, emp, nil, shift))
}

func TestAvailabilityConstraint_OvernightWindow(t *testing.T) {
	shift := testShift()
	shift.Start = time.Date(2024, 6, 4, 22, 0, 0, 0, time.UTC)
	shift.End = time.Date(2024, 6, 5, 6, 0, 0, 0, time.UTC)

	emp := testEmployee()
	emp.Availability = []model.AvailabilityWindow{{Date: "2024-06-04", Start: "20:00", End: "07:00", Available: true}}

	assert.True(t, AvailabilityConstraint{}.IsSatisfied(DefaultConfig(), emp, nil, shift))
}

func TestRestConstraint_Boundary(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	emp := testEmployee()

	// Previous shift ends exactly 8h before the start
	emp.CommittedShifts = []model.Interval{{
		Start: time.Date(2024, 6, 3, 16, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
	}}
	assert.True(t, RestConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift))

	// One minute less rest
	emp.CommittedShifts[0].End = time.Date(2024, 6, 4, 0, 1, 0, 0, time.UTC)
	assert.False(t, RestConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift))
}

func TestRestConstraint_FollowingShiftAndOverlap(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	emp := testEmployee()

	emp.CommittedShifts = []model.Interval{{
		Start: time.Date(2024, 6, 4, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 5, 7, 0, 0, 0, time.UTC),
	}}
	assert.False(t, RestConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift), "7h rest after the shift")

	emp.CommittedShifts[0].Start = time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	assert.True(t, RestConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift))

	emp.CommittedShifts = []model.Interval{{
		Start: time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 4, 14, 0, 0, 0, time.UTC),
	}}
	assert.False(t, RestConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift))
}

func TestWeeklyHoursConstraint_Boundary(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	emp := testEmployee()

	emp.CommittedHours = 40
	assert.True(t, WeeklyHoursConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift), "40 + 8 = 48 is allowed")

	emp.CommittedHours = 41
	assert.False(t, WeeklyHoursConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift))

	emp.MaxHoursWeek = 50
	assert.True(t, WeeklyHoursConstraint{}.IsSatisfied(cfg, emp, NewLoad(emp, shift.Start), shift), "employee cap overrides default")
}

func TestWeeklyHoursConstraint_OtherWeekIgnored(t *testing.T) {
	shift := testShift()
	emp := testEmployee()
	emp.CommittedHours = 48

	load := NewLoad(emp, shift.Start.AddDate(0, 0, -7))
	assert.True(t, WeeklyHoursConstraint{}.IsSatisfied(DefaultConfig(), emp, load, shift))
}

func TestDistanceConstraint(t *testing.T) {
	cfg := DefaultConfig()
	shift := testShift()
	emp := testEmployee()
	c := DistanceConstraint{}

	assert.True(t, c.IsSatisfied(cfg, emp, nil, shift))

	pretoria := model.Location{Lat: -25.7479, Lon: 28.2293}
	emp.HomeLocation = &pretoria
	assert.True(t, c.IsSatisfied(cfg, emp, nil, shift), "about 43km")

	cfg.MaxDistanceKm = 40
	assert.False(t, c.IsSatisfied(cfg, emp, nil, shift))

	emp.HomeLocation = nil
	assert.True(t, c.IsSatisfied(cfg, emp, nil, shift), "missing coordinates pass")

	emp.HomeLocation = &pretoria
	shift.Site.Location = nil
	assert.True(t, c.IsSatisfied(cfg, emp, nil, shift))
}

func TestHaversineKm(t *testing.T) {
	johannesburg := model.Location{Lat: -26.2041, Lon: 28.0473}
	capeTown := model.Location{Lat: -33.9249, Lon: 18.4241}

	assert.InDelta(t, 1262, HaversineKm(johannesburg, capeTown), 5)
	assert.InDelta(t, 0, HaversineKm(johannesburg, johannesburg), 1e-9)
}

func TestLoad_AddRemove(t *testing.T) {
	shift := testShift()
	emp := testEmployee()
	emp.CommittedHours = 10

	load := NewLoad(emp, shift.Start)
	require.Equal(t, 10.0, load.HoursInWeek(shift.Start))

	load.Add(shift)
	assert.Equal(t, 18.0, load.HoursInWeek(shift.Start))
	assert.Len(t, load.Intervals, 1)

	clone := load.Clone()
	load.Remove(shift)
	assert.Equal(t, 10.0, load.HoursInWeek(shift.Start))
	assert.Empty(t, load.Intervals)
	assert.Equal(t, 18.0, clone.HoursInWeek(shift.Start))
}

func TestWeekKey(t *testing.T) {
	assert.Equal(t, "2025-W01", WeekKey(time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-W23", WeekKey(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)))
}
