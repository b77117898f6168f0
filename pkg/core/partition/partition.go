// Package partition scales the solver to multi-region rosters: it splits the
// problem by region, solves partitions concurrently on a bounded pool and merges
// the partial results into one OptimizationResult.
package partition

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/core/premium"
	"github.com/jakechorley/guard-roster/pkg/core/solver"
)

// ErrNoWorkers is returned when the configured worker count is not positive
var ErrNoWorkers = errors.New("at least one worker is required")

// FloaterPolicy decides how floaters assigned in more than one partition are handled
type FloaterPolicy string

const (
	// FloaterReconcile drops overlapping duplicate assignments after merge,
	// keeping the cheaper one
	FloaterReconcile FloaterPolicy = "reconcile"

	// FloaterNone keeps every partition's assignments and only reports conflicts
	FloaterNone FloaterPolicy = "none"
)

// Config is the immutable orchestrator configuration
type Config struct {
	NumWorkers    int
	FloaterPolicy FloaterPolicy
	Solver        solver.Config
}

// Request is one optimisation run's scope and data
type Request struct {
	// StartDate and EndDate bound shift start dates, inclusive; zero values are open
	StartDate time.Time
	EndDate   time.Time

	// SiteIDs restricts the run to these sites when non-empty
	SiteIDs []string

	// OrgID restricts employees and sites to one organisation when set
	OrgID string

	Employees []*model.Employee
	Shifts    []*model.Shift
}

// Partition is an independently solved sub-problem
type Partition struct {
	Region    string
	Employees []*model.Employee
	Shifts    []*model.Shift
}

// Orchestrator runs one solver per partition and merges the results
type Orchestrator struct {
	cfg    Config
	calc   *premium.Calculator
	logger *zap.Logger

	// run solves a single partition; replaced in tests
	run func(ctx context.Context, p Partition, weekOf time.Time) *solver.Report
}

// New validates the configuration and creates an orchestrator
func New(cfg Config, calc *premium.Calculator, logger *zap.Logger) (*Orchestrator, error) {
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("%w: num_workers=%d", ErrNoWorkers, cfg.NumWorkers)
	}
	if _, err := solver.New(cfg.Solver.Strategy, logger); err != nil {
		return nil, err
	}
	switch cfg.FloaterPolicy {
	case "":
		cfg.FloaterPolicy = FloaterReconcile
	case FloaterReconcile, FloaterNone:
	default:
		return nil, fmt.Errorf("unknown floater policy %q", cfg.FloaterPolicy)
	}

	o := &Orchestrator{cfg: cfg, calc: calc, logger: logger}
	o.run = o.solvePartition
	return o, nil
}

// Optimize solves the request. It always returns a complete result when err is nil;
// partition failures are reported through the result's status, never as err.
func (o *Orchestrator) Optimize(ctx context.Context, req Request) (*model.OptimizationResult, error) {
	started := time.Now()
	partitions := BuildPartitions(req)
	weekOf := req.StartDate
	if weekOf.IsZero() {
		weekOf = earliestStart(req.Shifts)
	}

	o.logger.Info("Starting optimisation",
		zap.Int("partitions", len(partitions)),
		zap.Int("employees", len(req.Employees)),
		zap.Int("shifts", len(req.Shifts)))

	reports := make([]*solver.Report, len(partitions))

	var g errgroup.Group
	g.SetLimit(max(1, min(len(partitions), o.cfg.NumWorkers)))

	for idx, p := range partitions {
		g.Go(func() error {
			reports[idx] = o.runSafely(ctx, p, weekOf)
			return nil
		})
	}
	// Partition goroutines never return errors; failures are carried in reports
	_ = g.Wait()

	result := Merge(partitions, reports, o.cfg.FloaterPolicy)

	o.logger.Info("Optimisation complete",
		zap.String("status", string(result.Status)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("unfilled_shifts", len(result.UnfilledShifts)),
		zap.String("total_cost", result.TotalCost.StringFixed(2)),
		zap.Float64("fairness", result.FairnessScore),
		zap.Duration("elapsed", time.Since(started)))

	return result, nil
}

// runSafely converts a panicking partition into an error report so siblings keep running
func (o *Orchestrator) runSafely(ctx context.Context, p Partition, weekOf time.Time) (report *solver.Report) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Partition panicked",
				zap.String("region", p.Region),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			report = &solver.Report{
				Region:  p.Region,
				State:   solver.StateError,
				History: []solver.State{solver.StateNotStarted, solver.StateError},
				Err:     fmt.Errorf("partition %s panicked: %v", p.Region, r),
			}
		}
	}()

	report = o.run(ctx, p, weekOf)
	if report == nil {
		return &solver.Report{Region: p.Region, State: solver.StateError, Err: fmt.Errorf("partition %s produced no report", p.Region)}
	}
	if report.Err != nil {
		o.logger.Error("Partition failed", zap.String("region", p.Region), zap.Error(report.Err))
	}
	return report
}

func (o *Orchestrator) solvePartition(ctx context.Context, p Partition, weekOf time.Time) *solver.Report {
	runner, err := solver.NewRunner(o.cfg.Solver, o.calc, o.logger.With(zap.String("region", p.Region)))
	if err != nil {
		return &solver.Report{Region: p.Region, State: solver.StateError, Err: err}
	}
	return runner.Run(ctx, solver.Input{
		Region:    p.Region,
		Employees: p.Employees,
		Shifts:    p.Shifts,
		WeekOf:    weekOf,
	})
}

// BuildPartitions filters the request to its scope, groups shifts by site region
// and builds each region's employee pool: employees of that region plus floaters
// (employees without a region). Every partition receives deep copies.
func BuildPartitions(req Request) []Partition {
	var shifts []*model.Shift
	for _, shift := range req.Shifts {
		if inScope(req, shift) {
			shifts = append(shifts, shift)
		}
	}

	var employees []*model.Employee
	for _, emp := range req.Employees {
		if req.OrgID == "" || emp.OrgID == "" || emp.OrgID == req.OrgID {
			employees = append(employees, emp)
		}
	}

	byRegion := make(map[string][]*model.Shift)
	var regions []string
	for _, shift := range shifts {
		region := shift.Site.RegionOrUnknown()
		if _, ok := byRegion[region]; !ok {
			regions = append(regions, region)
		}
		byRegion[region] = append(byRegion[region], shift)
	}
	slices.Sort(regions)

	partitions := make([]Partition, 0, len(regions))
	for _, region := range regions {
		p := Partition{Region: region}
		for _, shift := range byRegion[region] {
			p.Shifts = append(p.Shifts, shift.Clone())
		}
		for _, emp := range employees {
			if IsFloater(emp) || strings.EqualFold(strings.TrimSpace(emp.Region), region) {
				p.Employees = append(p.Employees, emp.Clone())
			}
		}
		partitions = append(partitions, p)
	}
	return partitions
}

// IsFloater reports whether the employee has no declared region
func IsFloater(emp *model.Employee) bool {
	return strings.TrimSpace(emp.Region) == ""
}

func inScope(req Request, shift *model.Shift) bool {
	date := shift.Date()
	if !req.StartDate.IsZero() && dateBefore(date, req.StartDate) {
		return false
	}
	if !req.EndDate.IsZero() && dateBefore(req.EndDate, date) {
		return false
	}
	if len(req.SiteIDs) > 0 && !slices.Contains(req.SiteIDs, shift.Site.ID) {
		return false
	}
	if req.OrgID != "" && shift.Site.OrgID != "" && shift.Site.OrgID != req.OrgID {
		return false
	}
	return true
}

// dateBefore compares calendar dates, ignoring time of day
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

func earliestStart(shifts []*model.Shift) time.Time {
	var earliest time.Time
	for _, shift := range shifts {
		if earliest.IsZero() || shift.Start.Before(earliest) {
			earliest = shift.Start
		}
	}
	return earliest
}
