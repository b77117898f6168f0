package matrix

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/guard-roster/pkg/core/feasibility"
	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/core/premium"
)

var site = model.Site{ID: "site-1", Region: "Gauteng", Location: &model.Location{Lat: -26.1076, Lon: 28.0567}}

func employee(id string, rate int64) *model.Employee {
	home := model.Location{Lat: -26.10, Lon: 28.05}
	return &model.Employee{
		ID:           id,
		Skills:       []string{"patrol"},
		HomeLocation: &home,
		HourlyRate:   decimal.NewFromInt(rate),
		Certifications: []model.Certification{
			{Type: "PSIRA", Grade: model.GradeC, Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Verified: true},
		},
		Availability: []model.AvailabilityWindow{
			{Date: "2024-06-04", Start: "00:00", End: "00:00", Available: true},
			{Date: "2024-06-05", Start: "00:00", End: "00:00", Available: true},
		},
	}
}

func shift(id string, dayOfMonth int) *model.Shift {
	start := time.Date(2024, 6, dayOfMonth, 8, 0, 0, 0, time.UTC)
	return &model.Shift{ID: id, Site: site, Start: start, End: start.Add(8 * time.Hour), RequiredSkill: "patrol", Headcount: 1}
}

func TestBuild_CostsAndDiagnostics(t *testing.T) {
	noSkill := employee("emp-noskill", 40)
	noSkill.Skills = nil
	noCert := employee("emp-nocert", 40)
	noCert.Certifications = nil

	employees := []*model.Employee{employee("emp-ok", 50), noSkill, noCert}
	shifts := []*model.Shift{shift("shift-1", 4), shift("shift-2", 5)}
	calc := premium.NewCalculator(premium.DefaultConfig())

	m := Build(feasibility.DefaultConfig(), calc, employees, shifts, shifts[0].Start)

	require.Len(t, m.Cells, 3)
	require.Len(t, m.Cells[0], 2)
	assert.True(t, m.Cells[0][0].Feasible)
	assert.InDelta(t, 450.0, m.Cells[0][0].Cost, 1e-9)
	assert.False(t, m.Cells[1][0].Feasible)
	assert.Equal(t, []string{feasibility.ReasonSkillMismatch}, m.Cells[1][0].Reasons)

	d := m.Diagnostics
	assert.Equal(t, 6, d.PairsEvaluated)
	assert.Equal(t, 2, d.FeasiblePairs)
	assert.Equal(t, 2, d.ReasonCounts[feasibility.ReasonSkillMismatch])
	assert.Equal(t, 2, d.ReasonCounts[feasibility.ReasonCertificationInvalid])
	assert.InDelta(t, 100.0/3, d.ReasonPercentages[feasibility.ReasonSkillMismatch], 1e-9)
	assert.ElementsMatch(t, []string{"emp-noskill", "emp-nocert"}, d.EmployeesWithoutShifts)
	assert.Empty(t, d.ShiftsWithoutEmployees)

	assert.Equal(t, []int{0}, m.FeasibleEmployees(1))
	assert.True(t, m.HasFeasiblePair(0))
	assert.False(t, m.HasFeasiblePair(2))
}

func TestBuild_DoesNotModifyInputs(t *testing.T) {
	emp := employee("emp-1", 50)
	emp.CommittedHours = 10
	shifts := []*model.Shift{shift("shift-1", 4)}

	Build(feasibility.DefaultConfig(), premium.NewCalculator(premium.DefaultConfig()), []*model.Employee{emp}, shifts, shifts[0].Start)

	assert.Equal(t, 10.0, emp.CommittedHours)
	assert.Empty(t, emp.CommittedShifts)
}

func TestShiftReasonSummary(t *testing.T) {
	far := employee("emp-far", 40)
	far.HomeLocation = &model.Location{Lat: -33.9249, Lon: 18.4241}
	farNoSkill := employee("emp-far-noskill", 40)
	farNoSkill.HomeLocation = far.HomeLocation
	farNoSkill.Skills = nil

	shifts := []*model.Shift{shift("shift-1", 4)}
	m := Build(feasibility.DefaultConfig(), premium.NewCalculator(premium.DefaultConfig()),
		[]*model.Employee{employee("emp-ok", 50), far, farNoSkill}, shifts, shifts[0].Start)

	assert.Equal(t, []string{
		"distance exceeded (2/3 employees)",
		"skill mismatch (1/3 employees)",
	}, m.ShiftReasonSummary("shift-1"))
}

func TestShiftReasonSummary_NoEmployees(t *testing.T) {
	shifts := []*model.Shift{shift("shift-1", 4)}
	m := Build(feasibility.DefaultConfig(), premium.NewCalculator(premium.DefaultConfig()), nil, shifts, shifts[0].Start)

	assert.Equal(t, []string{"no employees in partition"}, m.ShiftReasonSummary("shift-1"))
	assert.Equal(t, []string{"shift-1"}, m.Diagnostics.ShiftsWithoutEmployees)
	assert.Equal(t, 0, m.Diagnostics.PairsEvaluated)
}

func TestDiagnostics_AsMap(t *testing.T) {
	d := Diagnostics{PairsEvaluated: 4, FeasiblePairs: 1, EmployeesWithoutShifts: []string{"a"}}
	out := d.AsMap()

	assert.Equal(t, 4, out["pairs_evaluated"])
	assert.Equal(t, 1, out["feasible_pairs"])
	assert.Equal(t, 1, out["employees_without_shifts"])
	assert.Equal(t, 0, out["shifts_without_employees"])
}
