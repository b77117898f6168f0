// Package premium computes the cost of a shift assignment under BCEA pay
// premiums: public holidays, Sundays, night work and overtime routing.
package premium

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// Kind is the premium class of a calendar date
type Kind string

const (
	KindRegular Kind = "regular"
	KindSunday  Kind = "sunday"
	KindHoliday Kind = "holiday"
)

// Class is the premium classification of a date
type Class struct {
	Kind       Kind
	Name       string
	Multiplier decimal.Decimal
}

// Tag returns the premium-type tag recorded on assignments
func (c Class) Tag() string {
	switch c.Kind {
	case KindHoliday:
		return model.PremiumHolidayPrefix + c.Name
	case KindSunday:
		return model.PremiumSunday
	default:
		return model.PremiumRegular
	}
}

// Config holds the pay multipliers
type Config struct {
	HolidayMultiplier   decimal.Decimal
	SundayMultiplier    decimal.Decimal
	OvertimeMultiplier  decimal.Decimal
	NightPremiumRate    decimal.Decimal
	NightStartHour      int
	NightEndHour        int
	TravelReimbursement decimal.Decimal
}

// DefaultConfig returns the standard BCEA premiums
func DefaultConfig() Config {
	return Config{
		HolidayMultiplier:   decimal.NewFromInt(2),
		SundayMultiplier:    decimal.RequireFromString("1.5"),
		OvertimeMultiplier:  decimal.NewFromInt(1),
		NightPremiumRate:    decimal.RequireFromString("0.10"),
		NightStartHour:      18,
		NightEndHour:        6,
		TravelReimbursement: decimal.NewFromInt(50),
	}
}

// Quote is the priced outcome of placing one employee on one shift
type Quote struct {
	Class         Class
	RegularHours  float64
	OvertimeHours float64
	Pay           model.PayBreakdown
}

// Calculator prices shifts. It is safe for concurrent use.
type Calculator struct {
	cfg Config

	mu       sync.Mutex
	holidays map[int]map[string]string
}

// NewCalculator creates a calculator with the given premiums
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{
		cfg:      cfg,
		holidays: make(map[int]map[string]string),
	}
}

// Classify returns the premium class of a calendar date.
// Precedence is public holiday > Sunday > regular day.
func (c *Calculator) Classify(date time.Time) Class {
	if name, ok := c.holidayName(date); ok {
		return Class{Kind: KindHoliday, Name: name, Multiplier: c.cfg.HolidayMultiplier}
	}
	if date.Weekday() == time.Sunday {
		return Class{Kind: KindSunday, Multiplier: c.cfg.SundayMultiplier}
	}
	return Class{Kind: KindRegular, Multiplier: decimal.NewFromInt(1)}
}

// IsNightShift reports whether a shift starting at start falls in the night window
func (c *Calculator) IsNightShift(start time.Time) bool {
	h := start.Hour()
	if c.cfg.NightStartHour > c.cfg.NightEndHour {
		return h >= c.cfg.NightStartHour || h < c.cfg.NightEndHour
	}
	return h >= c.cfg.NightStartHour && h < c.cfg.NightEndHour
}

// Calculate prices the shift for the employee.
// Meal breaks are excluded from paid hours before any premium is applied, and
// the date multiplier is folded into regular or overtime pay exactly once.
func (c *Calculator) Calculate(emp *model.Employee, shift *model.Shift) Quote {
	class := c.Classify(shift.Start)
	paidHours := shift.PaidHours()
	hours := decimal.NewFromFloat(paidHours)

	basePay := emp.HourlyRate.Mul(hours)
	adjusted := basePay.Mul(class.Multiplier)
	uplift := adjusted.Sub(basePay)

	quote := Quote{Class: class}
	pay := model.PayBreakdown{
		RegularPay:          decimal.Zero,
		OvertimePay:         decimal.Zero,
		NightPremium:        decimal.Zero,
		SundayPremium:       decimal.Zero,
		HolidayPremium:      decimal.Zero,
		TravelReimbursement: c.cfg.TravelReimbursement,
	}

	if shift.IsOvertime {
		quote.OvertimeHours = paidHours
		pay.OvertimePay = adjusted.Mul(c.cfg.OvertimeMultiplier)
	} else {
		quote.RegularHours = paidHours
		pay.RegularPay = adjusted
	}

	switch class.Kind {
	case KindHoliday:
		pay.HolidayPremium = uplift
	case KindSunday:
		pay.SundayPremium = uplift
	}

	if c.IsNightShift(shift.Start) {
		pay.NightPremium = basePay.Mul(c.cfg.NightPremiumRate)
	}

	pay.TotalCost = pay.RegularPay.Add(pay.OvertimePay).Add(pay.NightPremium).Add(pay.TravelReimbursement)
	quote.Pay = pay
	return quote
}

func (c *Calculator) holidayName(date time.Time) (string, bool) {
	year := date.Year()

	c.mu.Lock()
	byDate, ok := c.holidays[year]
	if !ok {
		byDate = make(map[string]string)
		for _, h := range Holidays(year) {
			byDate[h.Date.Format(dateLayout)] = h.Name
		}
		c.holidays[year] = byDate
	}
	c.mu.Unlock()

	name, found := byDate[date.Format(dateLayout)]
	return name, found
}
