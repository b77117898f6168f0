// Package feasibility decides whether one employee may legally and operationally
// work one shift. Every constraint is evaluated so diagnostics can report all
// failures, not just the first.
package feasibility

import (
	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// Rejection reasons
const (
	ReasonSkillMismatch        = "skill mismatch"
	ReasonCertificationInvalid = "certification invalid or expired"
	ReasonUnavailable          = "unavailable"
	ReasonInsufficientRest     = "insufficient rest"
	ReasonHourCapExceeded      = "weekly hour cap exceeded"
	ReasonDistanceExceeded     = "distance exceeded"
)

// Config holds the constraint limits and test-only toggles
type Config struct {
	MinRestHours  float64
	MaxHoursWeek  float64
	MaxDistanceKm float64

	SkipCertificationCheck bool
	SkipSkillMatching      bool
	SkipAvailabilityCheck  bool
}

// DefaultConfig returns the statutory defaults
func DefaultConfig() Config {
	return Config{
		MinRestHours:  8,
		MaxHoursWeek:  48,
		MaxDistanceKm: 50,
	}
}

// Constraint is a single feasibility predicate
type Constraint interface {
	// Name returns a human-readable identifier for this constraint
	Name() string

	// Reason is the label recorded when the constraint fails
	Reason() string

	// IsSatisfied tests the employee, with its current load, against the shift
	IsSatisfied(cfg Config, emp *model.Employee, load *Load, shift *model.Shift) bool
}

// Check is the verdict for one (employee, shift) pair
type Check struct {
	EmployeeID string
	ShiftID    string
	Feasible   bool
	Reasons    []string
}

// DefaultConstraints returns every constraint in reporting order
func DefaultConstraints() []Constraint {
	return []Constraint{
		SkillConstraint{},
		CertificationConstraint{},
		AvailabilityConstraint{},
		RestConstraint{},
		WeeklyHoursConstraint{},
		DistanceConstraint{},
	}
}

// DynamicConstraints are the constraints that depend on the employee's load,
// re-checked by solvers as assignments accumulate
func DynamicConstraints() []Constraint {
	return []Constraint{
		RestConstraint{},
		WeeklyHoursConstraint{},
	}
}

// Evaluate runs every default constraint for the pair
func Evaluate(cfg Config, emp *model.Employee, load *Load, shift *model.Shift) Check {
	return EvaluateWith(DefaultConstraints(), cfg, emp, load, shift)
}

// EvaluateWith runs the given constraints without short-circuiting.
// Feasible is the AND of all constraints; Reasons lists every failure in order.
func EvaluateWith(constraints []Constraint, cfg Config, emp *model.Employee, load *Load, shift *model.Shift) Check {
	check := Check{
		EmployeeID: emp.ID,
		ShiftID:    shift.ID,
		Feasible:   true,
		Reasons:    []string{},
	}
	if load == nil {
		load = NewLoad(emp, shift.Start)
	}

	for _, constraint := range constraints {
		if !constraint.IsSatisfied(cfg, emp, load, shift) {
			check.Feasible = false
			check.Reasons = append(check.Reasons, constraint.Reason())
		}
	}

	return check
}
