// Package matrix builds the employee × shift feasibility and cost structure
// consumed by the solvers.
package matrix

import (
	"fmt"
	"sort"
	"time"

	"github.com/jakechorley/guard-roster/pkg/core/feasibility"
	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/core/premium"
)

// Cell is the evaluation of one (employee, shift) pair
type Cell struct {
	Feasible bool
	Reasons  []string

	// Cost is the total cost of the pair; only meaningful when Feasible
	Cost  float64
	Quote premium.Quote
}

// Matrix is the dense feasibility/cost view of one partition.
// Cells is indexed [employee][shift] in the order of Employees and Shifts.
type Matrix struct {
	Employees []*model.Employee
	Shifts    []*model.Shift
	Cells     [][]Cell

	// Loads are the employees' starting loads, in Employees order
	Loads []*feasibility.Load

	Diagnostics Diagnostics
}

// Diagnostics aggregates rejection reasons across the matrix
type Diagnostics struct {
	PairsEvaluated int
	FeasiblePairs  int

	ReasonCounts      map[string]int
	ReasonPercentages map[string]float64

	// EmployeesWithoutShifts lists employees feasible for no shift
	EmployeesWithoutShifts []string

	// ShiftsWithoutEmployees lists shifts no employee is feasible for
	ShiftsWithoutEmployees []string

	// ShiftReasons counts rejection reasons per shift ID
	ShiftReasons map[string]map[string]int
}

// Build evaluates every employee against every shift. It never samples or stops
// early and does not modify its inputs. weekOf anchors employees' committed hours.
func Build(cfg feasibility.Config, calc *premium.Calculator, employees []*model.Employee, shifts []*model.Shift, weekOf time.Time) *Matrix {
	m := &Matrix{
		Employees: employees,
		Shifts:    shifts,
		Cells:     make([][]Cell, len(employees)),
		Loads:     make([]*feasibility.Load, len(employees)),
		Diagnostics: Diagnostics{
			ReasonCounts:           make(map[string]int),
			ReasonPercentages:      make(map[string]float64),
			EmployeesWithoutShifts: []string{},
			ShiftsWithoutEmployees: []string{},
			ShiftReasons:           make(map[string]map[string]int),
		},
	}

	shiftFeasibleCount := make([]int, len(shifts))
	diag := &m.Diagnostics

	for i, emp := range employees {
		load := feasibility.NewLoad(emp, weekOf)
		m.Loads[i] = load
		m.Cells[i] = make([]Cell, len(shifts))

		feasibleForEmployee := 0
		for j, shift := range shifts {
			check := feasibility.Evaluate(cfg, emp, load, shift)
			cell := Cell{
				Feasible: check.Feasible,
				Reasons:  check.Reasons,
			}
			diag.PairsEvaluated++

			if check.Feasible {
				cell.Quote = calc.Calculate(emp, shift)
				cell.Cost = cell.Quote.Pay.TotalCost.InexactFloat64()
				feasibleForEmployee++
				shiftFeasibleCount[j]++
				diag.FeasiblePairs++
			} else {
				reasons := diag.ShiftReasons[shift.ID]
				if reasons == nil {
					reasons = make(map[string]int)
					diag.ShiftReasons[shift.ID] = reasons
				}
				for _, reason := range check.Reasons {
					diag.ReasonCounts[reason]++
					reasons[reason]++
				}
			}

			m.Cells[i][j] = cell
		}

		if feasibleForEmployee == 0 {
			diag.EmployeesWithoutShifts = append(diag.EmployeesWithoutShifts, emp.ID)
		}
	}

	for j, shift := range shifts {
		if shiftFeasibleCount[j] == 0 {
			diag.ShiftsWithoutEmployees = append(diag.ShiftsWithoutEmployees, shift.ID)
		}
	}

	if diag.PairsEvaluated > 0 {
		for reason, count := range diag.ReasonCounts {
			diag.ReasonPercentages[reason] = 100 * float64(count) / float64(diag.PairsEvaluated)
		}
	}

	return m
}

// FeasibleEmployees returns the indices of employees feasible for shift j
func (m *Matrix) FeasibleEmployees(j int) []int {
	var indices []int
	for i := range m.Employees {
		if m.Cells[i][j].Feasible {
			indices = append(indices, i)
		}
	}
	return indices
}

// HasFeasiblePair reports whether the employee at row i is feasible for any shift
func (m *Matrix) HasFeasiblePair(i int) bool {
	for _, cell := range m.Cells[i] {
		if cell.Feasible {
			return true
		}
	}
	return false
}

// ShiftReasonSummary describes why employees were rejected for a shift,
// most frequent reason first, e.g. "distance exceeded (2/3 employees)"
func (m *Matrix) ShiftReasonSummary(shiftID string) []string {
	counts := m.Diagnostics.ShiftReasons[shiftID]
	if len(m.Employees) == 0 {
		return []string{"no employees in partition"}
	}

	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(a, b int) bool {
		if counts[reasons[a]] != counts[reasons[b]] {
			return counts[reasons[a]] > counts[reasons[b]]
		}
		return reasons[a] < reasons[b]
	})

	summary := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		summary = append(summary, fmt.Sprintf("%s (%d/%d employees)", reason, counts[reason], len(m.Employees)))
	}
	return summary
}

// AsMap flattens the diagnostics for reporting
func (d Diagnostics) AsMap() map[string]any {
	return map[string]any{
		"pairs_evaluated":          d.PairsEvaluated,
		"feasible_pairs":           d.FeasiblePairs,
		"reason_counts":            d.ReasonCounts,
		"reason_percentages":       d.ReasonPercentages,
		"employees_without_shifts": len(d.EmployeesWithoutShifts),
		"shifts_without_employees": len(d.ShiftsWithoutEmployees),
	}
}
