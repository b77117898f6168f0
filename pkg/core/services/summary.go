package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// RosterSummary is the headline view of an optimisation result
type RosterSummary struct {
	Status        model.Status
	TotalShifts   int
	TotalSlots    int
	FilledSlots   int
	FillRate      float64
	Cost          model.PayBreakdown
	EmployeesUsed int

	// ComplianceFlags are human-readable issues a scheduler should review
	ComplianceFlags []string
}

// Summarize computes fill rate, cost totals and compliance flags for result over shifts
func Summarize(result *model.OptimizationResult, shifts []*model.Shift) RosterSummary {
	summary := RosterSummary{
		Status:      result.Status,
		TotalShifts: len(shifts),
		Cost: model.PayBreakdown{
			RegularPay:          decimal.Zero,
			OvertimePay:         decimal.Zero,
			NightPremium:        decimal.Zero,
			SundayPremium:       decimal.Zero,
			HolidayPremium:      decimal.Zero,
			TravelReimbursement: decimal.Zero,
			TotalCost:           decimal.Zero,
		},
	}

	inScope := make(map[string]bool, len(shifts))
	for _, s := range shifts {
		summary.TotalSlots += s.Headcount
		inScope[s.ID] = true
	}

	employees := make(map[string]bool)
	for _, a := range result.Assignments {
		if inScope[a.ShiftID] {
			summary.FilledSlots++
		}
		summary.Cost = summary.Cost.Add(a.Pay)
		employees[a.EmployeeID] = true
	}
	summary.EmployeesUsed = len(employees)

	summary.FillRate = 1
	if summary.TotalSlots > 0 {
		summary.FillRate = float64(summary.FilledSlots) / float64(summary.TotalSlots)
	}

	summary.ComplianceFlags = complianceFlags(result, shifts)
	return summary
}

func complianceFlags(result *model.OptimizationResult, shifts []*model.Shift) []string {
	var flags []string

	sorted := make([]*model.Shift, len(shifts))
	copy(sorted, shifts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, s := range sorted {
		if s.MissingMealBreak() {
			flags = append(flags, fmt.Sprintf("meal break missing: shift %s runs %.1fh without a break", s.ID, s.Duration().Hours()))
		}
	}

	for _, u := range result.UnfilledShifts {
		flags = append(flags, fmt.Sprintf("unfilled: shift %s at site %s needs %d more guard(s)", u.ShiftID, u.SiteID, u.Missing))
	}

	for _, p := range result.Partitions {
		if p.Status == model.StatusError {
			flags = append(flags, fmt.Sprintf("partition error: region %s: %s", p.Region, p.Error))
		}
	}

	return flags
}
