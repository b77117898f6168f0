package solver

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jakechorley/guard-roster/pkg/core/matrix"
	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// ReasonSaturated is reported when feasible employees exist but none could take the slot
const ReasonSaturated = "all feasible employees already saturated"

// slot is one guard position on a shift
type slot struct {
	shift int
}

func expandSlots(m *matrix.Matrix) []slot {
	var slots []slot
	for j, shift := range m.Shifts {
		for k := 0; k < shift.Headcount; k++ {
			slots = append(slots, slot{shift: j})
		}
	}
	return slots
}

// buildSolution converts slot choices (employee index or -1 per slot) into a Solution
func buildSolution(m *matrix.Matrix, slots []slot, chosen []int, region string, status model.Status) *Solution {
	sol := &Solution{
		Assignments:    []model.Assignment{},
		UnfilledShifts: []model.UnfilledShift{},
		TotalCost:      decimal.Zero,
		EmployeeHours:  make(map[string]float64),
		Status:         status,
	}

	for i, emp := range m.Employees {
		if m.HasFeasiblePair(i) {
			sol.EmployeeHours[emp.ID] = 0
		}
	}

	missing := make([]int, len(m.Shifts))
	for s, sl := range slots {
		i := chosen[s]
		if i < 0 {
			missing[sl.shift]++
			continue
		}
		a := newAssignment(m, i, sl.shift, region)
		sol.Assignments = append(sol.Assignments, a)
		sol.TotalCost = sol.TotalCost.Add(a.Pay.TotalCost)
		sol.EmployeeHours[a.EmployeeID] += a.Hours()
	}

	for j, shift := range m.Shifts {
		if missing[j] == 0 {
			continue
		}
		var reasons []string
		if len(m.FeasibleEmployees(j)) == 0 {
			reasons = m.ShiftReasonSummary(shift.ID)
		} else {
			reasons = []string{ReasonSaturated}
		}
		sol.UnfilledShifts = append(sol.UnfilledShifts, model.UnfilledShift{
			ShiftID: shift.ID,
			SiteID:  shift.Site.ID,
			Region:  region,
			Missing: missing[j],
			Reasons: reasons,
		})
	}

	hours := make([]float64, 0, len(sol.EmployeeHours))
	for _, h := range sol.EmployeeHours {
		hours = append(hours, h)
	}
	sol.FairnessScore = FairnessScore(hours)

	return sol
}

func newAssignment(m *matrix.Matrix, i, j int, region string) model.Assignment {
	emp := m.Employees[i]
	shift := m.Shifts[j]
	quote := m.Cells[i][j].Quote

	return model.Assignment{
		ID:            uuid.New().String(),
		EmployeeID:    emp.ID,
		ShiftID:       shift.ID,
		SiteID:        shift.Site.ID,
		Region:        region,
		Interval:      shift.Interval(),
		RegularHours:  quote.RegularHours,
		OvertimeHours: quote.OvertimeHours,
		Pay:           quote.Pay,
		PremiumType:   quote.Class.Tag(),
		Status:        model.AssignmentPending,
	}
}
