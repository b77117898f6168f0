package solver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/matrix"
	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/core/premium"
)

// State is a step of a solver run
type State string

const (
	StateNotStarted     State = "not_started"
	StateBuildingMatrix State = "building_matrix"
	StateSolving        State = "solving"
	StateOptimal        State = "optimal"
	StateFeasible       State = "feasible"
	StateInfeasible     State = "infeasible"
	StateError          State = "error"
)

var stateTransitions = map[State][]State{
	StateNotStarted:     {StateBuildingMatrix, StateError},
	StateBuildingMatrix: {StateSolving, StateInfeasible, StateError},
	StateSolving:        {StateOptimal, StateFeasible, StateInfeasible, StateError},
}

// Input is one partition's problem. The runner never modifies it.
type Input struct {
	Region    string
	Employees []*model.Employee
	Shifts    []*model.Shift

	// WeekOf anchors employees' CommittedHours to an ISO week
	WeekOf time.Time
}

// Report is the outcome of one run
type Report struct {
	Region   string
	State    State
	History  []State
	Solution *Solution
	Matrix   *matrix.Matrix
	Err      error
	Duration time.Duration
}

// Status maps the final run state to a result status
func (r *Report) Status() model.Status {
	switch r.State {
	case StateOptimal:
		return model.StatusOptimal
	case StateFeasible:
		return model.StatusFeasible
	case StateInfeasible:
		return model.StatusInfeasible
	default:
		return model.StatusError
	}
}

func (r *Report) transition(next State) error {
	for _, allowed := range stateTransitions[r.State] {
		if allowed == next {
			r.State = next
			r.History = append(r.History, next)
			return nil
		}
	}
	return fmt.Errorf("invalid solver state transition %s -> %s", r.State, next)
}

// Runner drives validation, matrix construction and solving for one partition
type Runner struct {
	cfg    Config
	calc   *premium.Calculator
	solver Solver
	logger *zap.Logger
}

// NewRunner creates a runner using the strategy named in cfg
func NewRunner(cfg Config, calc *premium.Calculator, logger *zap.Logger) (*Runner, error) {
	s, err := New(cfg.Strategy, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, calc: calc, solver: s, logger: logger}, nil
}

// Run solves one partition. Structural problems end in StateError with Err set;
// an empty feasibility matrix ends in StateInfeasible.
func (r *Runner) Run(ctx context.Context, in Input) *Report {
	started := time.Now()
	report := &Report{
		Region:  in.Region,
		State:   StateNotStarted,
		History: []State{StateNotStarted},
	}
	defer func() {
		report.Duration = time.Since(started)
	}()

	fail := func(err error) *Report {
		report.Err = err
		report.State = StateError
		report.History = append(report.History, StateError)
		r.logger.Error("Solver run failed", zap.String("region", in.Region), zap.Error(err))
		return report
	}

	if err := multierr.Combine(model.ValidateEmployees(in.Employees), model.ValidateShifts(in.Shifts)); err != nil {
		return fail(err)
	}

	employees, err := materialize(in)
	if err != nil {
		return fail(err)
	}

	if err := report.transition(StateBuildingMatrix); err != nil {
		return fail(err)
	}
	r.logger.Debug("Building feasibility matrix",
		zap.String("region", in.Region),
		zap.Int("employees", len(employees)),
		zap.Int("shifts", len(in.Shifts)))

	m := matrix.Build(r.cfg.Feasibility, r.calc, employees, in.Shifts, in.WeekOf)
	report.Matrix = m
	r.logger.Debug("Feasibility matrix built",
		zap.String("region", in.Region),
		zap.Int("pairs", m.Diagnostics.PairsEvaluated),
		zap.Int("feasible_pairs", m.Diagnostics.FeasiblePairs))

	if m.Diagnostics.FeasiblePairs == 0 {
		report.Solution = buildSolution(m, expandSlots(m), unfilledChoices(m), in.Region, model.StatusInfeasible)
		if err := report.transition(StateInfeasible); err != nil {
			return fail(err)
		}
		return report
	}

	if err := report.transition(StateSolving); err != nil {
		return fail(err)
	}
	sol, err := r.solver.Solve(ctx, r.cfg, m, in.Region)
	if err != nil {
		return fail(fmt.Errorf("%s solver failed: %w", r.solver.Name(), err))
	}
	report.Solution = sol

	next := StateFeasible
	switch sol.Status {
	case model.StatusOptimal:
		next = StateOptimal
	case model.StatusInfeasible:
		next = StateInfeasible
	}
	if err := report.transition(next); err != nil {
		return fail(err)
	}
	return report
}

// materialize expands recurring availability over the span of the partition's shifts
func materialize(in Input) ([]*model.Employee, error) {
	if len(in.Shifts) == 0 {
		return in.Employees, nil
	}
	from, to := in.Shifts[0].Start, in.Shifts[0].End
	for _, shift := range in.Shifts[1:] {
		if shift.Start.Before(from) {
			from = shift.Start
		}
		if shift.End.After(to) {
			to = shift.End
		}
	}

	// Windows from the previous day can run past midnight into the first shift
	from = from.AddDate(0, 0, -1)

	employees := make([]*model.Employee, 0, len(in.Employees))
	for _, emp := range in.Employees {
		expanded, err := model.MaterializeAvailability(emp, from, to)
		if err != nil {
			return nil, err
		}
		employees = append(employees, expanded)
	}
	return employees, nil
}

func unfilledChoices(m *matrix.Matrix) []int {
	chosen := make([]int, len(expandSlots(m)))
	for s := range chosen {
		chosen[s] = -1
	}
	return chosen
}
