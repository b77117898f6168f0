package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/matrix"
	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// ErrDegenerateMatrix is returned when the cost matrix cannot be matched
var ErrDegenerateMatrix = errors.New("degenerate cost matrix")

// HungarianSolver models assignment as a minimum-cost bipartite matching between
// employees and guard slots. Each employee takes at most one slot per run.
//
// Rows and columns with no feasible pair are filtered out before matching and the
// remainder is padded square with zero-cost null pairs, so the matching routine
// never sees an all-infeasible row or column. Feasible costs are shifted by a
// constant larger than any matching's total so the result has maximum
// cardinality first and least cost second.
type HungarianSolver struct {
	logger *zap.Logger
}

func (h *HungarianSolver) Name() string {
	return string(StrategyHungarian)
}

func (h *HungarianSolver) Solve(ctx context.Context, cfg Config, m *matrix.Matrix, region string) (*Solution, error) {
	slots := expandSlots(m)
	chosen := make([]int, len(slots))
	for s := range chosen {
		chosen[s] = -1
	}

	// Filter rows and columns that are entirely infeasible
	var rows []int
	for i := range m.Employees {
		if m.HasFeasiblePair(i) {
			rows = append(rows, i)
		}
	}
	var cols []int
	for s, sl := range slots {
		if len(m.FeasibleEmployees(sl.shift)) > 0 {
			cols = append(cols, s)
		}
	}

	if len(rows) == 0 || len(cols) == 0 {
		h.logger.Debug("No feasible pairs for matching", zap.String("region", region))
		return buildSolution(m, slots, chosen, region, model.StatusInfeasible), nil
	}

	maxCost := 0.0
	for _, i := range rows {
		for _, s := range cols {
			cell := m.Cells[i][slots[s].shift]
			if !cell.Feasible {
				continue
			}
			if math.IsNaN(cell.Cost) || math.IsInf(cell.Cost, 0) {
				return nil, fmt.Errorf("%w: employee %s shift %s has non-finite cost", ErrDegenerateMatrix, m.Employees[i].ID, m.Shifts[slots[s].shift].ID)
			}
			maxCost = math.Max(maxCost, cell.Cost)
		}
	}
	reward := (maxCost + 1) * float64(min(len(rows), len(cols))+1)

	n := max(len(rows), len(cols))
	costs := make([][]float64, n)
	for r := 0; r < n; r++ {
		costs[r] = make([]float64, n)
		if r >= len(rows) {
			continue
		}
		for c := 0; c < len(cols); c++ {
			cell := m.Cells[rows[r]][slots[cols[c]].shift]
			if cell.Feasible {
				costs[r][c] = cell.Cost - reward
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	match := hungarian(costs)

	for r, c := range match {
		if r >= len(rows) || c >= len(cols) {
			continue
		}
		i := rows[r]
		s := cols[c]
		if !m.Cells[i][slots[s].shift].Feasible {
			continue
		}
		chosen[s] = i
	}

	h.logger.Debug("Matching complete",
		zap.String("region", region),
		zap.Int("rows", len(rows)),
		zap.Int("slots", len(cols)))

	return buildSolution(m, slots, chosen, region, model.StatusOptimal), nil
}

// hungarian solves the square assignment problem and returns the column matched to each row
func hungarian(a [][]float64) []int {
	n := len(a)
	inf := math.Inf(1)

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := a[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
			if j0 == 0 {
				break
			}
		}
	}

	match := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			match[p[j]-1] = j - 1
		}
	}
	return match
}
