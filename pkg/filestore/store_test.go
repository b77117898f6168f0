package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/db"
)

func johannesburg(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Johannesburg")
	require.NoError(t, err)
	return loc
}

func openFixture(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join("testdata", "problem.yaml"), johannesburg(t))
	require.NoError(t, err)
	return store
}

func TestOpen_ResolvesEmployees(t *testing.T) {
	store := openFixture(t)

	employees, err := store.GetEmployees(context.Background(), db.Scope{})
	require.NoError(t, err)
	require.Len(t, employees, 3)

	a := employees[0]
	assert.Equal(t, "emp-a", a.ID)
	assert.True(t, a.HourlyRate.Equal(decimal.RequireFromString("45.5")))
	assert.Equal(t, 45.0, a.MaxHoursWeek)
	require.NotNil(t, a.HomeLocation)
	assert.InDelta(t, -26.10, a.HomeLocation.Lat, 1e-9)
	require.Len(t, a.Certifications, 1)
	assert.Equal(t, model.GradeB, a.Certifications[0].Grade)
	assert.True(t, a.Certifications[0].Verified)

	require.Len(t, a.Availability, 2)
	assert.True(t, a.Availability[0].Available, "availability defaults to available")
	assert.False(t, a.Availability[1].Available)

	require.Len(t, a.CommittedShifts, 1)
	assert.Equal(t, 8, a.CommittedShifts[0].Start.Hour())

	b := employees[1]
	assert.Empty(t, b.Region, "employee without region is a floater")
	assert.Nil(t, b.HomeLocation)
	require.Len(t, b.AvailabilityRules, 1)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,TU", b.AvailabilityRules[0].RRule)
}

func TestOpen_ResolvesShifts(t *testing.T) {
	store := openFixture(t)
	loc := johannesburg(t)

	shifts, err := store.GetShifts(context.Background(), db.Scope{})
	require.NoError(t, err)
	require.Len(t, shifts, 4)

	s1 := shifts[0]
	assert.Equal(t, "site-sandton", s1.Site.ID)
	assert.Equal(t, "Gauteng", s1.Site.Region)
	assert.Equal(t, model.GradeC, s1.RequiredGrade)
	assert.Equal(t, 2, s1.Headcount)
	assert.Equal(t, time.Date(2026, 3, 2, 6, 0, 0, 0, loc), s1.Start)
	assert.InDelta(t, 7.5, s1.PaidHours(), 1e-9)

	s2 := shifts[1]
	assert.Equal(t, 1, s2.Headcount, "headcount defaults to one")
	assert.Equal(t, 18, s2.Start.Hour())
	assert.Equal(t, 12*time.Hour, s2.Duration())

	assert.Empty(t, shifts[2].Site.Location)
}

func TestGetShifts_FiltersScope(t *testing.T) {
	store := openFixture(t)
	loc := johannesburg(t)
	ctx := context.Background()

	shifts, err := store.GetShifts(ctx, db.Scope{
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, loc),
		EndDate:   time.Date(2026, 3, 8, 0, 0, 0, 0, loc),
		OrgID:     "org-1",
	})
	require.NoError(t, err)
	ids := []string{}
	for _, s := range shifts {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"shift-1", "shift-2"}, ids)

	shifts, err = store.GetShifts(ctx, db.Scope{SiteIDs: []string{"site-waterfront"}})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, "shift-2", shifts[0].ID)
}

func TestGetEmployees_FiltersOrgAndReturnsCopies(t *testing.T) {
	store := openFixture(t)
	ctx := context.Background()

	employees, err := store.GetEmployees(ctx, db.Scope{OrgID: "org-2"})
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "emp-c", employees[0].ID)

	employees[0].Name = "changed"
	again, err := store.GetEmployees(ctx, db.Scope{OrgID: "org-2"})
	require.NoError(t, err)
	assert.Equal(t, "Pieter", again[0].Name)
}

func TestParseProblem_UnknownSite(t *testing.T) {
	data := []byte(`
shifts:
  - id: s1
    site_id: missing
    start: "2026-03-02 06:00"
    end: "2026-03-02 14:00"
`)
	_, _, err := ParseProblem(data, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown site")
}

func TestParseProblem_InvalidGrade(t *testing.T) {
	data := []byte(`
employees:
  - id: e1
    certifications:
      - {type: PSIRA, grade: Z, expiry: "2027-01-01", verified: true}
`)
	_, _, err := ParseProblem(data, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "e1")
}

func TestParseProblem_InvalidTime(t *testing.T) {
	data := []byte(`
sites:
  - id: site
shifts:
  - id: s1
    site_id: site
    start: "tomorrow"
    end: "2026-03-02 14:00"
`)
	_, _, err := ParseProblem(data, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time")
}

func TestInsertRoster_WritesFile(t *testing.T) {
	store := openFixture(t)
	store.OutputDir = t.TempDir()

	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	roster := &db.Roster{
		ID:        "roster-1",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 6),
		Status:    "optimal",
		FillRate:  1,
		TotalCost: decimal.RequireFromString("341.25"),
		CreatedAt: start,
	}
	assignments := []db.Assignment{{
		ID:          "a-1",
		EmployeeID:  "emp-a",
		ShiftID:     "shift-1",
		Start:       start,
		End:         start.Add(8 * time.Hour),
		TotalCost:   decimal.RequireFromString("341.25"),
		PremiumType: "regular",
		Status:      "pending",
	}}

	require.NoError(t, store.InsertRoster(context.Background(), roster, assignments))

	data, err := os.ReadFile(filepath.Join(store.OutputDir, "roster-roster-1.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_cost: \"341.25\"")
	assert.Contains(t, string(data), "employee_id: emp-a")

	rosters := store.Rosters()
	require.Len(t, rosters, 1)
	assert.Equal(t, "2026-03-02", rosters[0].StartDate)
	require.Len(t, rosters[0].Assignments, 1)
}
