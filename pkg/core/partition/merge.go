package partition

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/core/solver"
)

// ReasonFloaterConflict is recorded on shifts whose assignment was dropped by reconciliation
const ReasonFloaterConflict = "floater double-booked in another partition"

// MergeStatus derives the global status from partition statuses.
// Precedence is error > infeasible > optimal > feasible: any error gives
// partial_error (error when every partition failed), any infeasibility gives
// partial_infeasible (infeasible when every partition was infeasible), otherwise
// optimal when every partition was optimal, else feasible.
func MergeStatus(statuses []model.Status) model.Status {
	if len(statuses) == 0 {
		return model.StatusOptimal
	}

	errorsCount, infeasibleCount, optimalCount := 0, 0, 0
	for _, s := range statuses {
		switch s {
		case model.StatusError, model.StatusPartialError:
			errorsCount++
		case model.StatusInfeasible, model.StatusPartialInfeasible:
			infeasibleCount++
		case model.StatusOptimal:
			optimalCount++
		}
	}

	switch {
	case errorsCount == len(statuses):
		return model.StatusError
	case errorsCount > 0:
		return model.StatusPartialError
	case infeasibleCount == len(statuses):
		return model.StatusInfeasible
	case infeasibleCount > 0:
		return model.StatusPartialInfeasible
	case optimalCount == len(statuses):
		return model.StatusOptimal
	default:
		return model.StatusFeasible
	}
}

// Merge combines partition reports into one result. reports[i] belongs to partitions[i].
func Merge(partitions []Partition, reports []*solver.Report, policy FloaterPolicy) *model.OptimizationResult {
	result := &model.OptimizationResult{
		Assignments:    []model.Assignment{},
		UnfilledShifts: []model.UnfilledShift{},
		TotalCost:      decimal.Zero,
		EmployeeHours:  make(map[string]float64),
		Diagnostics:    map[string]any{"partitions": len(partitions)},
		Partitions:     []model.PartitionReport{},
	}

	statuses := make([]model.Status, 0, len(reports))
	for idx, report := range reports {
		p := partitions[idx]
		status := report.Status()
		statuses = append(statuses, status)

		pr := model.PartitionReport{
			Region:          p.Region,
			Status:          status,
			Employees:       len(p.Employees),
			Shifts:          len(p.Shifts),
			TotalCost:       decimal.Zero,
			FairnessScore:   1,
			DurationSeconds: report.Duration.Seconds(),
		}
		if report.Err != nil {
			pr.Error = report.Err.Error()
			result.Diagnostics[namespaced(p.Region, "error")] = report.Err.Error()
		}
		result.Diagnostics[namespaced(p.Region, "states")] = report.History

		if report.Matrix != nil {
			for key, value := range report.Matrix.Diagnostics.AsMap() {
				result.Diagnostics[namespaced(p.Region, key)] = value
			}
		}

		if sol := report.Solution; sol != nil {
			result.Assignments = append(result.Assignments, sol.Assignments...)
			result.UnfilledShifts = append(result.UnfilledShifts, sol.UnfilledShifts...)
			result.TotalCost = result.TotalCost.Add(sol.TotalCost)
			for id, hours := range sol.EmployeeHours {
				result.EmployeeHours[id] += hours
			}
			pr.Assignments = len(sol.Assignments)
			pr.TotalCost = sol.TotalCost
			pr.FairnessScore = sol.FairnessScore
			result.Diagnostics[namespaced(p.Region, "iterations")] = sol.Iterations
		}
		result.Partitions = append(result.Partitions, pr)
	}

	conflicts := findFloaterConflicts(result.Assignments)
	result.Diagnostics["floater_conflicts"] = len(conflicts)
	if policy == FloaterReconcile && len(conflicts) > 0 {
		reconcile(result, conflicts)
		result.Diagnostics["floater_assignments_dropped"] = len(conflicts)
	}

	hours := make([]float64, 0, len(result.EmployeeHours))
	for _, h := range result.EmployeeHours {
		hours = append(hours, h)
	}
	result.FairnessScore = solver.FairnessScore(hours)
	result.Status = MergeStatus(statuses)

	return result
}

func namespaced(region, key string) string {
	return fmt.Sprintf("%s/%s", region, key)
}

// findFloaterConflicts returns the indices of assignments that overlap an earlier
// kept assignment of the same employee from a different partition. Of each
// overlapping pair the more expensive assignment is the one returned.
func findFloaterConflicts(assignments []model.Assignment) []int {
	byEmployee := make(map[string][]int)
	for idx, a := range assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], idx)
	}

	dropped := make(map[int]bool)
	for _, indices := range byEmployee {
		if len(indices) < 2 {
			continue
		}
		// Cheapest first, so the kept assignment of any conflict is the lower-cost one
		sort.SliceStable(indices, func(x, y int) bool {
			return assignments[indices[x]].Pay.TotalCost.LessThan(assignments[indices[y]].Pay.TotalCost)
		})

		var kept []int
		for _, idx := range indices {
			conflict := false
			for _, k := range kept {
				if assignments[k].Region != assignments[idx].Region &&
					assignments[k].Interval.Overlaps(assignments[idx].Interval) {
					conflict = true
					break
				}
			}
			if conflict {
				dropped[idx] = true
			} else {
				kept = append(kept, idx)
			}
		}
	}

	conflicts := make([]int, 0, len(dropped))
	for idx := range dropped {
		conflicts = append(conflicts, idx)
	}
	sort.Ints(conflicts)
	return conflicts
}

// reconcile removes conflicting assignments and reports their shifts as unfilled
func reconcile(result *model.OptimizationResult, conflicts []int) {
	drop := make(map[int]bool, len(conflicts))
	for _, idx := range conflicts {
		drop[idx] = true
	}

	kept := make([]model.Assignment, 0, len(result.Assignments)-len(conflicts))
	for idx, a := range result.Assignments {
		if !drop[idx] {
			kept = append(kept, a)
			continue
		}

		result.TotalCost = result.TotalCost.Sub(a.Pay.TotalCost)
		result.EmployeeHours[a.EmployeeID] -= a.Hours()

		found := false
		for u := range result.UnfilledShifts {
			if result.UnfilledShifts[u].ShiftID == a.ShiftID {
				result.UnfilledShifts[u].Missing++
				result.UnfilledShifts[u].Reasons = append(result.UnfilledShifts[u].Reasons, ReasonFloaterConflict)
				found = true
				break
			}
		}
		if !found {
			result.UnfilledShifts = append(result.UnfilledShifts, model.UnfilledShift{
				ShiftID: a.ShiftID,
				SiteID:  a.SiteID,
				Region:  a.Region,
				Missing: 1,
				Reasons: []string{ReasonFloaterConflict},
			})
		}
	}
	result.Assignments = kept
}
