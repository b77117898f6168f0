package feasibility

import (
	"math"
	"strings"
	"time"

	"github.com/jakechorley/guard-roster/pkg/core/model"
)

const hoursEpsilon = 1e-9

// SkillConstraint requires the shift's skill tag in the employee's skill set
type SkillConstraint struct{}

func (SkillConstraint) Name() string   { return "Skill" }
func (SkillConstraint) Reason() string { return ReasonSkillMismatch }

func (SkillConstraint) IsSatisfied(cfg Config, emp *model.Employee, _ *Load, shift *model.Shift) bool {
	if cfg.SkipSkillMatching || strings.TrimSpace(shift.RequiredSkill) == "" {
		return true
	}
	return emp.HasSkill(shift.RequiredSkill)
}

// CertificationConstraint requires at least one verified, unexpired certification
// of the required type whose grade meets the required grade
type CertificationConstraint struct{}

func (CertificationConstraint) Name() string   { return "Certification" }
func (CertificationConstraint) Reason() string { return ReasonCertificationInvalid }

func (CertificationConstraint) IsSatisfied(cfg Config, emp *model.Employee, _ *Load, shift *model.Shift) bool {
	if cfg.SkipCertificationCheck {
		return true
	}
	shiftDate := shift.Date()
	for _, cert := range emp.Certifications {
		if !cert.ValidOn(shiftDate) {
			continue
		}
		if shift.RequiredCertType != "" && !strings.EqualFold(cert.Type, shift.RequiredCertType) {
			continue
		}
		if !cert.Grade.Satisfies(shift.RequiredGrade) {
			continue
		}
		return true
	}
	return false
}

// AvailabilityConstraint requires the shift to lie fully inside one available
// window and to overlap no unavailable window
type AvailabilityConstraint struct{}

func (AvailabilityConstraint) Name() string   { return "Availability" }
func (AvailabilityConstraint) Reason() string { return ReasonUnavailable }

func (AvailabilityConstraint) IsSatisfied(cfg Config, emp *model.Employee, _ *Load, shift *model.Shift) bool {
	if cfg.SkipAvailabilityCheck {
		return true
	}
	loc := shift.Start.Location()
	iv := shift.Interval()

	covered := false
	for _, window := range emp.Availability {
		bounds, err := window.Bounds(loc)
		if err != nil {
			continue
		}
		if !window.Available {
			if bounds.Overlaps(iv) {
				return false
			}
			continue
		}
		if !bounds.Start.After(iv.Start) && !bounds.End.Before(iv.End) {
			covered = true
		}
	}
	return covered
}

// RestConstraint requires MinRestHours between the shift and the employee's
// neighbouring committed intervals on both sides; overlaps always fail
type RestConstraint struct{}

func (RestConstraint) Name() string   { return "Rest" }
func (RestConstraint) Reason() string { return ReasonInsufficientRest }

func (RestConstraint) IsSatisfied(cfg Config, _ *model.Employee, load *Load, shift *model.Shift) bool {
	minRest := time.Duration(cfg.MinRestHours * float64(time.Hour))
	iv := shift.Interval()

	for _, existing := range load.Intervals {
		if existing.Overlaps(iv) {
			return false
		}
		if !existing.End.After(iv.Start) && iv.Start.Sub(existing.End) < minRest {
			return false
		}
		if !existing.Start.Before(iv.End) && existing.Start.Sub(iv.End) < minRest {
			return false
		}
	}
	return true
}

// WeeklyHoursConstraint caps hours committed in the shift's ISO week
type WeeklyHoursConstraint struct{}

func (WeeklyHoursConstraint) Name() string   { return "WeeklyHours" }
func (WeeklyHoursConstraint) Reason() string { return ReasonHourCapExceeded }

func (WeeklyHoursConstraint) IsSatisfied(cfg Config, emp *model.Employee, load *Load, shift *model.Shift) bool {
	limit := cfg.MaxHoursWeek
	if emp.MaxHoursWeek > 0 {
		limit = emp.MaxHoursWeek
	}
	if limit <= 0 {
		return true
	}
	return load.HoursInWeek(shift.Start)+shift.Duration().Hours() <= limit+hoursEpsilon
}

// DistanceConstraint limits the great-circle distance between home and site.
// Missing coordinates on either side pass.
type DistanceConstraint struct{}

func (DistanceConstraint) Name() string   { return "Distance" }
func (DistanceConstraint) Reason() string { return ReasonDistanceExceeded }

func (DistanceConstraint) IsSatisfied(cfg Config, emp *model.Employee, _ *Load, shift *model.Shift) bool {
	if cfg.MaxDistanceKm <= 0 || emp.HomeLocation == nil || shift.Site.Location == nil {
		return true
	}
	return HaversineKm(*emp.HomeLocation, *shift.Site.Location) <= cfg.MaxDistanceKm
}

// EarthRadiusKm is the mean Earth radius
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points
func HaversineKm(a, b model.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
