package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/guard-roster/pkg/db"
)

var _ db.Database = (*DB)(nil)

// InsertRoster inserts a roster summary and its assignments in one transaction
func (d *DB) InsertRoster(ctx context.Context, roster *db.Roster, assignments []db.Assignment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	flags := roster.ComplianceFlags
	if flags == nil {
		flags = []string{}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO roster (id, org_id, start_date, end_date, status, fill_rate, fairness_score,
		                    total_cost, regular_pay, overtime_pay, night_premium, sunday_premium,
		                    holiday_premium, travel_cost, compliance_flags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
		        $8::text::numeric, $9::text::numeric, $10::text::numeric, $11::text::numeric, $12::text::numeric,
		        $13::text::numeric, $14::text::numeric, $15, $16)
	`, roster.ID, roster.OrgID, roster.StartDate, roster.EndDate, roster.Status, roster.FillRate, roster.FairnessScore,
		roster.TotalCost.StringFixed(2), roster.RegularPay.StringFixed(2), roster.OvertimePay.StringFixed(2),
		roster.NightPremium.StringFixed(2), roster.SundayPremium.StringFixed(2), roster.HolidayPremium.StringFixed(2),
		roster.TravelCost.StringFixed(2), flags, roster.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert roster: %w", err)
	}

	for _, a := range assignments {
		_, err := tx.Exec(ctx, `
			INSERT INTO assignment (id, roster_id, employee_id, shift_id, site_id, region, start_at, end_at,
			                        regular_hours, overtime_hours, regular_pay, overtime_pay, night_premium,
			                        sunday_premium, holiday_premium, travel_reimbursement, total_cost,
			                        premium_type, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			        $11::text::numeric, $12::text::numeric, $13::text::numeric, $14::text::numeric,
			        $15::text::numeric, $16::text::numeric, $17::text::numeric, $18, $19)
		`, a.ID, roster.ID, a.EmployeeID, a.ShiftID, a.SiteID, a.Region, a.Start.UTC(), a.End.UTC(),
			a.RegularHours, a.OvertimeHours,
			a.RegularPay.StringFixed(2), a.OvertimePay.StringFixed(2), a.NightPremium.StringFixed(2),
			a.SundayPremium.StringFixed(2), a.HolidayPremium.StringFixed(2), a.TravelReimbursement.StringFixed(2),
			a.TotalCost.StringFixed(2), a.PremiumType, a.Status)
		if err != nil {
			return fmt.Errorf("failed to insert assignment for shift %s: %w", a.ShiftID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
