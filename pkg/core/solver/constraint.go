package solver

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/feasibility"
	"github.com/jakechorley/guard-roster/pkg/core/matrix"
	"github.com/jakechorley/guard-roster/pkg/core/model"
)

const objectiveEpsilon = 1e-9

// ConstraintSolver fills multi-guard shifts with a greedy construction followed
// by a local search that trades total cost against the spread of hours.
//
// Construction visits the scarcest slots first and always completes, so a
// well-formed solution exists before the search starts. The search polls the
// deadline on every move and returns the best solution found: status feasible
// when the deadline cut it short, optimal when no reassign or swap move improves
// the objective.
type ConstraintSolver struct {
	logger *zap.Logger
}

func (c *ConstraintSolver) Name() string {
	return string(StrategyConstraint)
}

// searchState is the mutable working copy of one solve
type searchState struct {
	cfg   Config
	m     *matrix.Matrix
	slots []slot

	// chosen holds the employee index per slot, -1 when unfilled
	chosen  []int
	loads   []*feasibility.Load
	hours   []float64
	onShift map[[2]int]bool

	eligible []int
	feasible [][]int
	filled   int
	cost     float64

	costNorm  float64
	hoursNorm float64
}

func (c *ConstraintSolver) Solve(ctx context.Context, cfg Config, m *matrix.Matrix, region string) (*Solution, error) {
	started := time.Now()
	deadline := started.Add(cfg.TimeLimit)

	st := newSearchState(cfg, m)
	if m.Diagnostics.FeasiblePairs == 0 {
		return buildSolution(m, st.slots, st.chosen, region, model.StatusInfeasible), nil
	}

	st.construct()
	c.logger.Debug("Initial construction complete",
		zap.String("region", region),
		zap.Int("filled", st.filled),
		zap.Int("slots", len(st.slots)))

	timedOut := false
	warned := false
	iterations := 0

	poll := func() bool {
		if ctx.Err() != nil {
			return false
		}
		elapsed := time.Since(started)
		if !warned && cfg.SoftTimeLimit > 0 && elapsed >= cfg.SoftTimeLimit {
			warned = true
			c.logger.Warn("Solver passed soft time limit",
				zap.String("region", region),
				zap.Duration("elapsed", elapsed),
				zap.Duration("limit", cfg.TimeLimit))
		}
		return time.Now().Before(deadline)
	}

	for {
		if !poll() {
			timedOut = true
			break
		}
		iterations++
		improved, ok := st.improve(poll)
		if !ok {
			timedOut = true
			break
		}
		if !improved {
			break
		}
	}

	status := model.StatusOptimal
	if timedOut {
		status = model.StatusFeasible
		c.logger.Info("Solver stopped at deadline, returning best known solution",
			zap.String("region", region),
			zap.Int("iterations", iterations))
	}

	sol := buildSolution(m, st.slots, st.chosen, region, status)
	sol.Iterations = iterations
	return sol, nil
}

func newSearchState(cfg Config, m *matrix.Matrix) *searchState {
	st := &searchState{
		cfg:     cfg,
		m:       m,
		slots:   expandSlots(m),
		loads:   make([]*feasibility.Load, len(m.Employees)),
		hours:   make([]float64, len(m.Employees)),
		onShift: make(map[[2]int]bool),
	}
	st.chosen = make([]int, len(st.slots))
	for s := range st.chosen {
		st.chosen[s] = -1
	}
	for i := range m.Employees {
		st.loads[i] = m.Loads[i].Clone()
		if m.HasFeasiblePair(i) {
			st.eligible = append(st.eligible, i)
		}
	}

	st.feasible = make([][]int, len(m.Shifts))
	for j := range m.Shifts {
		st.feasible[j] = m.FeasibleEmployees(j)
	}

	maxCost := 0.0
	maxHours := 0.0
	for j, shift := range m.Shifts {
		maxHours = math.Max(maxHours, shift.PaidHours())
		for i := range m.Employees {
			if m.Cells[i][j].Feasible {
				maxCost = math.Max(maxCost, m.Cells[i][j].Cost)
			}
		}
	}
	st.costNorm = math.Max(1, maxCost*float64(max(1, len(st.slots))))
	st.hoursNorm = math.Max(1, maxHours)
	return st
}

// construct fills slots greedily, scarcest shift first
func (st *searchState) construct() {
	order := make([]int, len(st.slots))
	candidates := make([]int, len(st.m.Shifts))
	for j := range st.m.Shifts {
		candidates[j] = len(st.feasible[j])
	}
	for s := range order {
		order[s] = s
	}
	sort.SliceStable(order, func(a, b int) bool {
		ja, jb := st.slots[order[a]].shift, st.slots[order[b]].shift
		if candidates[ja] != candidates[jb] {
			return candidates[ja] < candidates[jb]
		}
		return st.m.Shifts[ja].Start.Before(st.m.Shifts[jb].Start)
	})

	for _, s := range order {
		j := st.slots[s].shift
		best := -1
		bestScore := math.Inf(1)
		for _, i := range st.feasible[j] {
			if !st.canTake(i, j) {
				continue
			}
			score := st.candidateScore(i, j)
			if score < bestScore {
				bestScore = score
				best = i
			}
		}
		if best >= 0 {
			st.assign(s, best)
		}
	}
}

// candidateScore blends the pair's normalised cost with the hours the employee
// would then hold, weighted by the fairness weight
func (st *searchState) candidateScore(i, j int) float64 {
	w := st.cfg.FairnessWeight
	maxCost := st.costNorm / float64(max(1, len(st.slots)))
	cost := st.m.Cells[i][j].Cost / math.Max(1, maxCost)
	load := (st.hours[i] + st.m.Shifts[j].PaidHours()) / st.hoursNorm
	return (1-w)*cost + w*load
}

// canTake re-checks the load-dependent constraints for employee i on shift j
func (st *searchState) canTake(i, j int) bool {
	if !st.m.Cells[i][j].Feasible || st.onShift[[2]int{i, j}] {
		return false
	}
	check := feasibility.EvaluateWith(
		feasibility.DynamicConstraints(),
		st.cfg.Feasibility,
		st.m.Employees[i],
		st.loads[i],
		st.m.Shifts[j],
	)
	return check.Feasible
}

func (st *searchState) assign(s, i int) {
	j := st.slots[s].shift
	st.chosen[s] = i
	st.loads[i].Add(st.m.Shifts[j])
	st.hours[i] += st.m.Shifts[j].PaidHours()
	st.onShift[[2]int{i, j}] = true
	st.cost += st.m.Cells[i][j].Cost
	st.filled++
}

func (st *searchState) unassign(s int) {
	i := st.chosen[s]
	if i < 0 {
		return
	}
	j := st.slots[s].shift
	st.chosen[s] = -1
	st.loads[i].Remove(st.m.Shifts[j])
	st.hours[i] -= st.m.Shifts[j].PaidHours()
	delete(st.onShift, [2]int{i, j})
	st.cost -= st.m.Cells[i][j].Cost
	st.filled--
}

// objective is minimised; filled slots are compared before it
func (st *searchState) objective() float64 {
	w := st.cfg.FairnessWeight
	values := make([]float64, len(st.eligible))
	for k, i := range st.eligible {
		values[k] = st.hours[i]
	}
	_, sd := meanStddev(values)
	return (1-w)*st.cost/st.costNorm + w*sd/st.hoursNorm
}

func (st *searchState) better(filled int, obj float64, bestFilled int, bestObj float64) bool {
	if filled != bestFilled {
		return filled > bestFilled
	}
	return obj < bestObj-objectiveEpsilon
}

// improve makes one pass over reassign and swap moves, applying the first
// improving move found. It reports whether a move was applied, and false for ok
// when the deadline passed mid-pass.
func (st *searchState) improve(poll func() bool) (improved bool, ok bool) {
	currentObj := st.objective()

	// Reassign: move a slot to a different employee, or fill an empty slot
	for s, sl := range st.slots {
		j := sl.shift
		prev := st.chosen[s]
		for _, i := range st.feasible[j] {
			if !poll() {
				return false, false
			}
			if i == prev {
				continue
			}
			st.unassign(s)
			if st.canTake(i, j) {
				st.assign(s, i)
				if st.better(st.filled, st.objective(), st.filledWith(prev), currentObj) {
					return true, true
				}
				st.unassign(s)
			}
			if prev >= 0 {
				st.assign(s, prev)
			}
		}
	}

	// Swap: exchange employees between two filled slots on different shifts
	for a := range st.slots {
		for b := a + 1; b < len(st.slots); b++ {
			if !poll() {
				return false, false
			}
			ia, ib := st.chosen[a], st.chosen[b]
			ja, jb := st.slots[a].shift, st.slots[b].shift
			if ia < 0 || ib < 0 || ia == ib || ja == jb {
				continue
			}
			if !st.m.Cells[ia][jb].Feasible || !st.m.Cells[ib][ja].Feasible {
				continue
			}

			st.unassign(a)
			st.unassign(b)
			if st.canTake(ia, jb) {
				st.assign(b, ia)
				if st.canTake(ib, ja) {
					st.assign(a, ib)
					if st.objective() < currentObj-objectiveEpsilon {
						return true, true
					}
					st.unassign(a)
				}
				st.unassign(b)
			}
			st.assign(a, ia)
			st.assign(b, ib)
		}
	}

	return false, true
}

// filledWith returns the filled count the state had before a reassign move,
// given the slot's previous employee
func (st *searchState) filledWith(prev int) int {
	if prev < 0 {
		return st.filled - 1
	}
	return st.filled
}
