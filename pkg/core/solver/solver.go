// Package solver turns a feasibility matrix into assignments. Two strategies
// share the same input contract: least-cost bipartite matching for one guard
// per shift, and a deadline-bounded constraint search for multi-guard shifts
// with a fairness objective.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/feasibility"
	"github.com/jakechorley/guard-roster/pkg/core/matrix"
	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// Strategy selects a Solver implementation
type Strategy string

const (
	StrategyHungarian  Strategy = "hungarian"
	StrategyConstraint Strategy = "constraint"
)

// Config is the immutable solver configuration
type Config struct {
	Strategy Strategy

	// TimeLimit is the hard wall-clock budget for the search
	TimeLimit time.Duration

	// SoftTimeLimit logs a warning once the search runs past it
	SoftTimeLimit time.Duration

	// FairnessWeight in [0,1] trades total cost (0) against even hours (1)
	FairnessWeight float64

	Feasibility feasibility.Config
}

// DefaultConfig returns the default solver configuration
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyConstraint,
		TimeLimit:      180 * time.Second,
		SoftTimeLimit:  120 * time.Second,
		FairnessWeight: 0.3,
		Feasibility:    feasibility.DefaultConfig(),
	}
}

// Solution is a solver's output for one partition
type Solution struct {
	Assignments    []model.Assignment
	UnfilledShifts []model.UnfilledShift
	TotalCost      decimal.Decimal
	FairnessScore  float64

	// EmployeeHours holds paid hours for every employee with at least one feasible pair
	EmployeeHours map[string]float64

	Status model.Status

	// Iterations counts improvement passes of the search
	Iterations int
}

// Solver produces assignments from a fully built matrix
type Solver interface {
	// Name returns the strategy name
	Name() string

	// Solve assigns employees to shift slots. region labels the emitted assignments.
	Solve(ctx context.Context, cfg Config, m *matrix.Matrix, region string) (*Solution, error)
}

// New returns the solver for a strategy
func New(strategy Strategy, logger *zap.Logger) (Solver, error) {
	switch strategy {
	case StrategyHungarian:
		return &HungarianSolver{logger: logger}, nil
	case StrategyConstraint, "":
		return &ConstraintSolver{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown solver strategy %q", strategy)
	}
}
