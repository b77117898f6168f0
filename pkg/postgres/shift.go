package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/guard-roster/pkg/core/model"
	"github.com/jakechorley/guard-roster/pkg/db"
)

// GetShifts retrieves shifts starting within the scope's dates, joined to their site.
// An empty SiteIDs selects every site of the organisation.
func (d *DB) GetShifts(ctx context.Context, scope db.Scope) ([]*model.Shift, error) {
	var siteIDs []string
	if len(scope.SiteIDs) > 0 {
		siteIDs = scope.SiteIDs
	}

	rows, err := d.pool.Query(ctx, `
		SELECT s.id, s.start_at, s.end_at, s.required_skill, s.required_cert_type, s.required_grade,
		       s.headcount, s.meal_break, s.meal_break_minutes, s.is_overtime,
		       site.id, site.org_id, site.name, site.region, site.lat, site.lon
		FROM shift s
		JOIN site ON site.id = s.site_id
		WHERE s.start_at >= $1 AND s.start_at < $2
		  AND ($3 = '' OR site.org_id = $3)
		  AND ($4::text[] IS NULL OR site.id = ANY($4))
		ORDER BY s.start_at, s.id
	`, scope.StartDate, scope.EndDate.Add(24*time.Hour), scope.OrgID, siteIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		var s model.Shift
		var grade string
		var lat, lon *float64
		if err := rows.Scan(
			&s.ID, &s.Start, &s.End, &s.RequiredSkill, &s.RequiredCertType, &grade,
			&s.Headcount, &s.MealBreak, &s.MealBreakMinutes, &s.IsOvertime,
			&s.Site.ID, &s.Site.OrgID, &s.Site.Name, &s.Site.Region, &lat, &lon,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		s.Start, s.End = s.Start.In(d.loc), s.End.In(d.loc)
		s.RequiredGrade, err = model.ParseGrade(grade)
		if err != nil {
			return nil, fmt.Errorf("invalid required grade for shift %s: %w", s.ID, err)
		}
		if lat != nil && lon != nil {
			s.Site.Location = &model.Location{Lat: *lat, Lon: *lon}
		}
		shifts = append(shifts, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}
