package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/db"
)

// committedLookback is how far before the scope start committed shifts are loaded for rest checks
const committedLookback = 7 * 24 * time.Hour

// GetEmployees retrieves active employees of the scope's organisation with their
// certifications, availability and committed shifts attached
func (d *DB) GetEmployees(ctx context.Context, scope db.Scope) ([]*model.Employee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, org_id, name, skills, max_hours_week, home_lat, home_lon, region,
		       hourly_rate::text, committed_hours
		FROM employee
		WHERE active AND ($1 = '' OR org_id = $1)
		ORDER BY id
	`, scope.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	byID := make(map[string]*model.Employee)
	for rows.Next() {
		var e model.Employee
		var lat, lon *float64
		var rate string
		if err := rows.Scan(&e.ID, &e.OrgID, &e.Name, &e.Skills, &e.MaxHoursWeek, &lat, &lon, &e.Region, &rate, &e.CommittedHours); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		if lat != nil && lon != nil {
			e.HomeLocation = &model.Location{Lat: *lat, Lon: *lon}
		}
		e.HourlyRate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("invalid hourly rate for employee %s: %w", e.ID, err)
		}
		employees = append(employees, &e)
		byID[e.ID] = &e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	if len(employees) == 0 {
		return employees, nil
	}

	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}

	if err := d.attachCertifications(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := d.attachAvailabilityWindows(ctx, ids, byID, scope); err != nil {
		return nil, err
	}
	if err := d.attachAvailabilityRules(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := d.attachCommittedShifts(ctx, ids, byID, scope); err != nil {
		return nil, err
	}

	return employees, nil
}

func (d *DB) attachCertifications(ctx context.Context, ids []string, byID map[string]*model.Employee) error {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, cert_type, grade, expiry, verified
		FROM certification
		WHERE employee_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query certifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID, grade string
		var c model.Certification
		if err := rows.Scan(&employeeID, &c.Type, &grade, &c.Expiry, &c.Verified); err != nil {
			return fmt.Errorf("failed to scan certification: %w", err)
		}
		y, m, day := c.Expiry.Date()
		c.Expiry = time.Date(y, m, day, 0, 0, 0, 0, d.loc)
		c.Grade, err = model.ParseGrade(grade)
		if err != nil {
			return fmt.Errorf("invalid certification grade for employee %s: %w", employeeID, err)
		}
		if e, ok := byID[employeeID]; ok {
			e.Certifications = append(e.Certifications, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating certifications: %w", err)
	}
	return nil
}

func (d *DB) attachAvailabilityWindows(ctx context.Context, ids []string, byID map[string]*model.Employee, scope db.Scope) error {
	// Windows from the previous day can run past midnight into the scope
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, to_char(date, 'YYYY-MM-DD'), start_time, end_time, available
		FROM availability_window
		WHERE employee_id = ANY($1) AND date BETWEEN $2::date - 1 AND $3::date
		ORDER BY employee_id, date, start_time
	`, ids, scope.StartDate, scope.EndDate)
	if err != nil {
		return fmt.Errorf("failed to query availability windows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID string
		var w model.AvailabilityWindow
		if err := rows.Scan(&employeeID, &w.Date, &w.Start, &w.End, &w.Available); err != nil {
			return fmt.Errorf("failed to scan availability window: %w", err)
		}
		if e, ok := byID[employeeID]; ok {
			e.Availability = append(e.Availability, w)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating availability windows: %w", err)
	}
	return nil
}

func (d *DB) attachAvailabilityRules(ctx context.Context, ids []string, byID map[string]*model.Employee) error {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, rrule, start_time, end_time, available
		FROM availability_rule
		WHERE employee_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query availability rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID string
		var r model.AvailabilityRule
		if err := rows.Scan(&employeeID, &r.RRule, &r.Start, &r.End, &r.Available); err != nil {
			return fmt.Errorf("failed to scan availability rule: %w", err)
		}
		if e, ok := byID[employeeID]; ok {
			e.AvailabilityRules = append(e.AvailabilityRules, r)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating availability rules: %w", err)
	}
	return nil
}

func (d *DB) attachCommittedShifts(ctx context.Context, ids []string, byID map[string]*model.Employee, scope db.Scope) error {
	from := scope.StartDate.Add(-committedLookback)
	to := scope.EndDate.Add(2 * 24 * time.Hour)

	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, start_at, end_at
		FROM committed_shift
		WHERE employee_id = ANY($1) AND end_at > $2 AND start_at < $3
		ORDER BY employee_id, start_at
	`, ids, from, to)
	if err != nil {
		return fmt.Errorf("failed to query committed shifts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID string
		var iv model.Interval
		if err := rows.Scan(&employeeID, &iv.Start, &iv.End); err != nil {
			return fmt.Errorf("failed to scan committed shift: %w", err)
		}
		iv.Start, iv.End = iv.Start.In(d.loc), iv.End.In(d.loc)
		if e, ok := byID[employeeID]; ok {
			e.CommittedShifts = append(e.CommittedShifts, iv)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating committed shifts: %w", err)
	}
	return nil
}
