package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/core/partition"
	"github.com/jakechorley/guard-roster/pkg/core/premium"
	"github.com/jakechorley/guard-roster/pkg/core/solver"
	"github.com/jakechorley/guard-roster/pkg/db"
	"github.com/jakechorley/guard-roster/pkg/filestore"
)

// mockRosterStore implements OptimizeRosterStore
type mockRosterStore struct {
	employees []*model.Employee
	shifts    []*model.Shift

	getEmployeesErr error
	getShiftsErr    error
	insertErr       error

	lastScope           db.Scope
	insertedRoster      *db.Roster
	insertedAssignments []db.Assignment
}

func (m *mockRosterStore) GetEmployees(ctx context.Context, scope db.Scope) ([]*model.Employee, error) {
	m.lastScope = scope
	if m.getEmployeesErr != nil {
		return nil, m.getEmployeesErr
	}
	return m.employees, nil
}

func (m *mockRosterStore) GetShifts(ctx context.Context, scope db.Scope) ([]*model.Shift, error) {
	if m.getShiftsErr != nil {
		return nil, m.getShiftsErr
	}
	return m.shifts, nil
}

func (m *mockRosterStore) InsertRoster(ctx context.Context, roster *db.Roster, assignments []db.Assignment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.insertedRoster = roster
	m.insertedAssignments = assignments
	return nil
}

// stubOptimizer returns a fixed result
type stubOptimizer struct {
	result *model.OptimizationResult
	err    error
	req    partition.Request
}

func (s *stubOptimizer) Optimize(ctx context.Context, req partition.Request) (*model.OptimizationResult, error) {
	s.req = req
	return s.result, s.err
}

var gauteng = model.Site{ID: "site-1", OrgID: "org-1", Region: "Gauteng"}

func guard(id string, rate int64) *model.Employee {
	return &model.Employee{
		ID:         id,
		OrgID:      "org-1",
		Region:     "Gauteng",
		HourlyRate: decimal.NewFromInt(rate),
		Certifications: []model.Certification{
			{Type: "PSIRA", Grade: model.GradeB, Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Verified: true},
		},
	}
}

func shiftAt(id string, start time.Time, hours, headcount int) *model.Shift {
	return &model.Shift{ID: id, Site: gauteng, Start: start, End: start.Add(time.Duration(hours) * time.Hour), Headcount: headcount}
}

func testScope() db.Scope {
	return db.Scope{
		StartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		OrgID:     "org-1",
	}
}

func newOrchestrator(t *testing.T) *partition.Orchestrator {
	t.Helper()
	sc := solver.DefaultConfig()
	sc.TimeLimit = 10 * time.Second
	sc.Feasibility.SkipAvailabilityCheck = true
	o, err := partition.New(partition.Config{NumWorkers: 2, Solver: sc}, premium.NewCalculator(premium.DefaultConfig()), zap.NewNop())
	require.NoError(t, err)
	return o
}

func TestOptimizeRoster_SavesRoster(t *testing.T) {
	store := &mockRosterStore{
		employees: []*model.Employee{guard("emp-1", 40), guard("emp-2", 50)},
		shifts: []*model.Shift{
			shiftAt("shift-1", time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC), 8, 2),
			shiftAt("shift-2", time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC), 4, 1),
		},
	}

	res, err := OptimizeRoster(context.Background(), store, newOrchestrator(t), testScope(), zap.NewNop(), false)
	require.NoError(t, err)

	assert.Equal(t, "org-1", store.lastScope.OrgID)
	require.NotNil(t, res.Roster)
	require.NotNil(t, store.insertedRoster)
	assert.Equal(t, res.Roster.ID, store.insertedRoster.ID)
	assert.Len(t, store.insertedAssignments, 3)
	for _, a := range store.insertedAssignments {
		assert.Equal(t, string(model.AssignmentPending), a.Status)
	}

	assert.Equal(t, 3, res.Summary.TotalSlots)
	assert.Equal(t, 3, res.Summary.FilledSlots)
	assert.Equal(t, 1.0, res.Summary.FillRate)
	assert.True(t, res.Summary.Cost.TotalCost.Equal(res.Result.TotalCost))
	assert.True(t, store.insertedRoster.TotalCost.Equal(res.Result.TotalCost))
	assert.Equal(t, []string{"meal break missing: shift shift-1 runs 8.0h without a break"}, res.Summary.ComplianceFlags)
}

func TestOptimizeRoster_DryRunDoesNotSave(t *testing.T) {
	store := &mockRosterStore{
		employees: []*model.Employee{guard("emp-1", 40)},
		shifts:    []*model.Shift{shiftAt("shift-1", time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC), 4, 1)},
	}

	res, err := OptimizeRoster(context.Background(), store, newOrchestrator(t), testScope(), zap.NewNop(), true)
	require.NoError(t, err)

	assert.Nil(t, res.Roster)
	assert.Nil(t, store.insertedRoster)
	assert.Len(t, res.Result.Assignments, 1)
}

func TestOptimizeRoster_ErrorStatusNotSaved(t *testing.T) {
	store := &mockRosterStore{}
	optimizer := &stubOptimizer{result: &model.OptimizationResult{
		Status: model.StatusError,
		Partitions: []model.PartitionReport{
			{Region: "Gauteng", Status: model.StatusError, Error: "boom"},
		},
		TotalCost: decimal.Zero,
	}}

	res, err := OptimizeRoster(context.Background(), store, optimizer, testScope(), zap.NewNop(), false)
	require.NoError(t, err)

	assert.Nil(t, store.insertedRoster)
	assert.Contains(t, res.Summary.ComplianceFlags, "partition error: region Gauteng: boom")
}

func TestOptimizeRoster_PassesScopeToOptimizer(t *testing.T) {
	shifts := []*model.Shift{shiftAt("shift-1", time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC), 4, 1)}
	store := &mockRosterStore{employees: []*model.Employee{guard("emp-1", 40)}, shifts: shifts}
	optimizer := &stubOptimizer{result: &model.OptimizationResult{Status: model.StatusOptimal, TotalCost: decimal.Zero}}

	scope := testScope()
	scope.SiteIDs = []string{"site-1"}
	_, err := OptimizeRoster(context.Background(), store, optimizer, scope, zap.NewNop(), true)
	require.NoError(t, err)

	assert.Equal(t, scope.StartDate, optimizer.req.StartDate)
	assert.Equal(t, scope.EndDate, optimizer.req.EndDate)
	assert.Equal(t, []string{"site-1"}, optimizer.req.SiteIDs)
	assert.Equal(t, "org-1", optimizer.req.OrgID)
	assert.Len(t, optimizer.req.Shifts, 1)
}

func TestOptimizeRoster_StoreErrors(t *testing.T) {
	optimizer := &stubOptimizer{result: &model.OptimizationResult{Status: model.StatusOptimal, TotalCost: decimal.Zero}}

	_, err := OptimizeRoster(context.Background(), &mockRosterStore{getEmployeesErr: errors.New("connection refused")},
		optimizer, testScope(), zap.NewNop(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch employees")

	_, err = OptimizeRoster(context.Background(), &mockRosterStore{getShiftsErr: errors.New("connection refused")},
		optimizer, testScope(), zap.NewNop(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch shifts")

	_, err = OptimizeRoster(context.Background(), &mockRosterStore{insertErr: errors.New("disk full")},
		optimizer, testScope(), zap.NewNop(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save roster")
}

func TestOptimizeRoster_RejectsInvertedWindow(t *testing.T) {
	scope := testScope()
	scope.StartDate, scope.EndDate = scope.EndDate, scope.StartDate

	_, err := OptimizeRoster(context.Background(), &mockRosterStore{}, &stubOptimizer{}, scope, zap.NewNop(), false)
	assert.Error(t, err)
}

func TestSummarize_FillRateAndFlags(t *testing.T) {
	shifts := []*model.Shift{
		shiftAt("shift-a", time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC), 4, 2),
		shiftAt("shift-b", time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC), 4, 2),
	}
	result := &model.OptimizationResult{
		Status: model.StatusFeasible,
		Assignments: []model.Assignment{
			{EmployeeID: "emp-1", ShiftID: "shift-a", Pay: model.PayBreakdown{RegularPay: decimal.NewFromInt(160), TravelReimbursement: decimal.NewFromInt(50), TotalCost: decimal.NewFromInt(210)}},
			{EmployeeID: "emp-2", ShiftID: "shift-a", Pay: model.PayBreakdown{RegularPay: decimal.NewFromInt(160), TravelReimbursement: decimal.NewFromInt(50), TotalCost: decimal.NewFromInt(210)}},
			{EmployeeID: "emp-1", ShiftID: "shift-b", Pay: model.PayBreakdown{RegularPay: decimal.NewFromInt(160), NightPremium: decimal.NewFromInt(16), TotalCost: decimal.NewFromInt(176)}},
		},
		UnfilledShifts: []model.UnfilledShift{{ShiftID: "shift-b", SiteID: "site-1", Missing: 1, Reasons: []string{solver.ReasonSaturated}}},
	}

	summary := Summarize(result, shifts)

	assert.Equal(t, 4, summary.TotalSlots)
	assert.Equal(t, 3, summary.FilledSlots)
	assert.InDelta(t, 0.75, summary.FillRate, 1e-9)
	assert.Equal(t, 2, summary.EmployeesUsed)
	assert.True(t, summary.Cost.TotalCost.Equal(decimal.NewFromInt(596)))
	assert.True(t, summary.Cost.NightPremium.Equal(decimal.NewFromInt(16)))
	assert.Equal(t, []string{"unfilled: shift shift-b at site site-1 needs 1 more guard(s)"}, summary.ComplianceFlags)
}

func TestSummarize_NoShifts(t *testing.T) {
	summary := Summarize(&model.OptimizationResult{Status: model.StatusOptimal}, nil)

	assert.Equal(t, 1.0, summary.FillRate)
	assert.True(t, summary.Cost.TotalCost.IsZero())
	assert.Empty(t, summary.ComplianceFlags)
}

const twoRegionProblem = `
sites:
  - {id: site-jhb, org_id: org-1, region: Gauteng}
  - {id: site-cpt, org_id: org-1, region: Western Cape}
employees:
  - id: guard-jhb
    org_id: org-1
    region: Gauteng
    hourly_rate: 40
    certifications:
      - {type: PSIRA, grade: C, expiry: "2030-01-01", verified: true}
    availability:
      - {date: "2024-06-04", start: "00:00", end: "00:00"}
  - id: guard-cpt
    org_id: org-1
    region: Western Cape
    hourly_rate: 50
    certifications:
      - {type: PSIRA, grade: C, expiry: "2030-01-01", verified: true}
    availability:
      - {date: "2024-06-04", start: "00:00", end: "00:00"}
shifts:
  - {id: shift-jhb, site_id: site-jhb, start: "2024-06-04 08:00", end: "2024-06-04 12:00", headcount: 1}
  - {id: shift-cpt, site_id: site-cpt, start: "2024-06-04 08:00", end: "2024-06-04 12:00", headcount: 1}
`

func TestOptimizeRoster_FileStoreEndToEnd(t *testing.T) {
	store, err := filestore.New([]byte(twoRegionProblem), time.UTC)
	require.NoError(t, err)

	sc := solver.DefaultConfig()
	sc.TimeLimit = 10 * time.Second
	o, err := partition.New(partition.Config{NumWorkers: 2, Solver: sc}, premium.NewCalculator(premium.DefaultConfig()), zap.NewNop())
	require.NoError(t, err)

	res, err := OptimizeRoster(context.Background(), store, o, testScope(), zap.NewNop(), false)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOptimal, res.Result.Status)
	assert.Len(t, res.Result.Partitions, 2)
	assert.True(t, res.Result.TotalCost.Equal(decimal.NewFromInt(460)), "got %s", res.Result.TotalCost)
	assert.Equal(t, 1.0, res.Summary.FillRate)

	rosters := store.Rosters()
	require.Len(t, rosters, 1)
	assert.Equal(t, res.Roster.ID, rosters[0].ID)
	assert.Equal(t, "optimal", rosters[0].Status)
	assert.Equal(t, "460.00", rosters[0].TotalCost)
	assert.Len(t, rosters[0].Assignments, 2)
}
