package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/core/partition"
	"github.com/jakechorley/guard-roster/pkg/db"
)

// OptimizeRosterStore defines the database operations needed for optimising a roster
type OptimizeRosterStore interface {
	db.RosterReader
	db.RosterWriter
}

// Optimizer solves a roster request
type Optimizer interface {
	Optimize(ctx context.Context, req partition.Request) (*model.OptimizationResult, error)
}

// RosterResult represents the result of an optimisation run
type RosterResult struct {
	// Roster is nil when nothing was persisted
	Roster  *db.Roster
	Result  *model.OptimizationResult
	Summary RosterSummary

	// Shifts are the shifts in scope of the run
	Shifts []*model.Shift
}

// OptimizeRoster loads employees and shifts for the scope, runs the optimiser and,
// unless dryRun is set or the run failed outright, persists the roster and its
// pending assignments.
func OptimizeRoster(
	ctx context.Context,
	store OptimizeRosterStore,
	optimizer Optimizer,
	scope db.Scope,
	logger *zap.Logger,
	dryRun bool,
) (*RosterResult, error) {
	if !scope.StartDate.IsZero() && !scope.EndDate.IsZero() && scope.EndDate.Before(scope.StartDate) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			scope.EndDate.Format("2006-01-02"), scope.StartDate.Format("2006-01-02"))
	}

	logger.Debug("Optimising roster",
		zap.Time("start_date", scope.StartDate),
		zap.Time("end_date", scope.EndDate),
		zap.Strings("site_ids", scope.SiteIDs),
		zap.String("org_id", scope.OrgID),
		zap.Bool("dry_run", dryRun))

	// Step 1: Fetch employees
	logger.Debug("Fetching employees")
	employees, err := store.GetEmployees(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	logger.Debug("Found employees", zap.Int("count", len(employees)))

	// Step 2: Fetch shifts
	logger.Debug("Fetching shifts")
	shifts, err := store.GetShifts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts: %w", err)
	}
	logger.Debug("Found shifts", zap.Int("count", len(shifts)))

	// Step 3: Run the optimiser
	req := partition.Request{
		StartDate: scope.StartDate,
		EndDate:   scope.EndDate,
		SiteIDs:   scope.SiteIDs,
		OrgID:     scope.OrgID,
		Employees: employees,
		Shifts:    shifts,
	}
	result, err := optimizer.Optimize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to optimise roster: %w", err)
	}

	// Step 4: Summarise
	inScope := scopedShifts(req)
	summary := Summarize(result, inScope)
	logger.Debug("Roster summarised",
		zap.String("status", string(result.Status)),
		zap.Float64("fill_rate", summary.FillRate),
		zap.Int("compliance_flags", len(summary.ComplianceFlags)))

	out := &RosterResult{Result: result, Summary: summary, Shifts: inScope}

	if dryRun {
		logger.Info("Dry run: roster not saved")
		return out, nil
	}
	if result.Status == model.StatusError {
		logger.Warn("Every partition failed, roster not saved")
		return out, nil
	}

	// Step 5: Persist
	roster := toRosterRow(uuid.New().String(), scope, result, summary, time.Now())
	rows := toAssignmentRows(result.Assignments)

	logger.Debug("Saving roster", zap.String("roster_id", roster.ID), zap.Int("assignments", len(rows)))
	if err := store.InsertRoster(ctx, roster, rows); err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	out.Roster = roster
	logger.Debug("Roster saved", zap.String("roster_id", roster.ID))
	return out, nil
}

// scopedShifts returns the shifts the optimiser considered for req
func scopedShifts(req partition.Request) []*model.Shift {
	var out []*model.Shift
	for _, p := range partition.BuildPartitions(req) {
		out = append(out, p.Shifts...)
	}
	return out
}

func toRosterRow(id string, scope db.Scope, result *model.OptimizationResult, summary RosterSummary, now time.Time) *db.Roster {
	return &db.Roster{
		ID:              id,
		OrgID:           scope.OrgID,
		StartDate:       scope.StartDate,
		EndDate:         scope.EndDate,
		Status:          string(result.Status),
		FillRate:        summary.FillRate,
		FairnessScore:   result.FairnessScore,
		TotalCost:       result.TotalCost,
		RegularPay:      summary.Cost.RegularPay,
		OvertimePay:     summary.Cost.OvertimePay,
		NightPremium:    summary.Cost.NightPremium,
		SundayPremium:   summary.Cost.SundayPremium,
		HolidayPremium:  summary.Cost.HolidayPremium,
		TravelCost:      summary.Cost.TravelReimbursement,
		ComplianceFlags: summary.ComplianceFlags,
		CreatedAt:       now,
	}
}

func toAssignmentRows(assignments []model.Assignment) []db.Assignment {
	rows := make([]db.Assignment, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, db.Assignment{
			ID:                  a.ID,
			EmployeeID:          a.EmployeeID,
			ShiftID:             a.ShiftID,
			SiteID:              a.SiteID,
			Region:              a.Region,
			Start:               a.Interval.Start,
			End:                 a.Interval.End,
			RegularHours:        a.RegularHours,
			OvertimeHours:       a.OvertimeHours,
			RegularPay:          a.Pay.RegularPay,
			OvertimePay:         a.Pay.OvertimePay,
			NightPremium:        a.Pay.NightPremium,
			SundayPremium:       a.Pay.SundayPremium,
			HolidayPremium:      a.Pay.HolidayPremium,
			TravelReimbursement: a.Pay.TravelReimbursement,
			TotalCost:           a.Pay.TotalCost,
			PremiumType:         a.PremiumType,
			Status:              string(a.Status),
		})
	}
	return rows
}
