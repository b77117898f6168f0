package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/db"
)

// Store serves a parsed problem file and writes rosters as YAML into OutputDir
type Store struct {
	employees []*model.Employee
	shifts    []*model.Shift

	// OutputDir receives roster-<id>.yaml files; empty keeps rosters in memory only
	OutputDir string

	mu      sync.Mutex
	rosters []RosterFile
}

var _ db.Database = (*Store)(nil)

// Open reads and parses the problem file at path
func Open(path string, loc *time.Location) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file: %w", err)
	}
	return New(data, loc)
}

// New creates a store from problem file contents
func New(data []byte, loc *time.Location) (*Store, error) {
	employees, shifts, err := ParseProblem(data, loc)
	if err != nil {
		return nil, err
	}
	return &Store{employees: employees, shifts: shifts}, nil
}

// GetEmployees returns copies of the employees in the scope's organisation
func (s *Store) GetEmployees(ctx context.Context, scope db.Scope) ([]*model.Employee, error) {
	var out []*model.Employee
	for _, e := range s.employees {
		if scope.OrgID != "" && e.OrgID != scope.OrgID {
			continue
		}
		out = append(out, e.Clone())
	}
	return out, nil
}

// GetShifts returns copies of the shifts whose start date falls in the scope
func (s *Store) GetShifts(ctx context.Context, scope db.Scope) ([]*model.Shift, error) {
	var out []*model.Shift
	for _, shift := range s.shifts {
		if scope.OrgID != "" && shift.Site.OrgID != scope.OrgID {
			continue
		}
		if len(scope.SiteIDs) > 0 && !slices.Contains(scope.SiteIDs, shift.Site.ID) {
			continue
		}
		if !inDates(shift.Start, scope.StartDate, scope.EndDate) {
			continue
		}
		out = append(out, shift.Clone())
	}
	return out, nil
}

// RosterFile is the on-disk layout of a written roster
type RosterFile struct {
	ID              string           `yaml:"id"`
	OrgID           string           `yaml:"org_id,omitempty"`
	StartDate       string           `yaml:"start_date"`
	EndDate         string           `yaml:"end_date"`
	Status          string           `yaml:"status"`
	FillRate        float64          `yaml:"fill_rate"`
	FairnessScore   float64          `yaml:"fairness_score"`
	TotalCost       string           `yaml:"total_cost"`
	RegularPay      string           `yaml:"regular_pay"`
	OvertimePay     string           `yaml:"overtime_pay"`
	NightPremium    string           `yaml:"night_premium"`
	SundayPremium   string           `yaml:"sunday_premium"`
	HolidayPremium  string           `yaml:"holiday_premium"`
	TravelCost      string           `yaml:"travel_cost"`
	ComplianceFlags []string         `yaml:"compliance_flags,omitempty"`
	CreatedAt       string           `yaml:"created_at"`
	Assignments     []AssignmentFile `yaml:"assignments"`
}

// AssignmentFile is one assignment inside a RosterFile
type AssignmentFile struct {
	ID            string  `yaml:"id"`
	EmployeeID    string  `yaml:"employee_id"`
	ShiftID       string  `yaml:"shift_id"`
	SiteID        string  `yaml:"site_id"`
	Region        string  `yaml:"region"`
	Start         string  `yaml:"start"`
	End           string  `yaml:"end"`
	RegularHours  float64 `yaml:"regular_hours"`
	OvertimeHours float64 `yaml:"overtime_hours"`
	TotalCost     string  `yaml:"total_cost"`
	PremiumType   string  `yaml:"premium_type"`
	Status        string  `yaml:"status"`
}

// InsertRoster records the roster and, when OutputDir is set, writes it to disk
func (s *Store) InsertRoster(ctx context.Context, roster *db.Roster, assignments []db.Assignment) error {
	file := toRosterFile(roster, assignments)

	if s.OutputDir != "" {
		data, err := yaml.Marshal(file)
		if err != nil {
			return fmt.Errorf("failed to encode roster: %w", err)
		}
		if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(s.OutputDir, fmt.Sprintf("roster-%s.yaml", roster.ID))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write roster file: %w", err)
		}
	}

	s.mu.Lock()
	s.rosters = append(s.rosters, file)
	s.mu.Unlock()
	return nil
}

// Rosters returns the rosters inserted so far
func (s *Store) Rosters() []RosterFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rosters)
}

func toRosterFile(r *db.Roster, assignments []db.Assignment) RosterFile {
	file := RosterFile{
		ID:              r.ID,
		OrgID:           r.OrgID,
		StartDate:       r.StartDate.Format(dateLayout),
		EndDate:         r.EndDate.Format(dateLayout),
		Status:          r.Status,
		FillRate:        r.FillRate,
		FairnessScore:   r.FairnessScore,
		TotalCost:       r.TotalCost.StringFixed(2),
		RegularPay:      r.RegularPay.StringFixed(2),
		OvertimePay:     r.OvertimePay.StringFixed(2),
		NightPremium:    r.NightPremium.StringFixed(2),
		SundayPremium:   r.SundayPremium.StringFixed(2),
		HolidayPremium:  r.HolidayPremium.StringFixed(2),
		TravelCost:      r.TravelCost.StringFixed(2),
		ComplianceFlags: r.ComplianceFlags,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		Assignments:     make([]AssignmentFile, 0, len(assignments)),
	}
	for _, a := range assignments {
		file.Assignments = append(file.Assignments, AssignmentFile{
			ID:            a.ID,
			EmployeeID:    a.EmployeeID,
			ShiftID:       a.ShiftID,
			SiteID:        a.SiteID,
			Region:        a.Region,
			Start:         a.Start.Format(time.RFC3339),
			End:           a.End.Format(time.RFC3339),
			RegularHours:  a.RegularHours,
			OvertimeHours: a.OvertimeHours,
			TotalCost:     a.TotalCost.StringFixed(2),
			PremiumType:   a.PremiumType,
			Status:        a.Status,
		})
	}
	return file
}

// inDates compares calendar dates; zero bounds are open
func inDates(t, start, end time.Time) bool {
	day := t.Format(dateLayout)
	if !start.IsZero() && day < start.Format(dateLayout) {
		return false
	}
	if !end.IsZero() && day > end.Format(dateLayout) {
		return false
	}
	return true
}
