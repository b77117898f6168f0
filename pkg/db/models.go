package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment represents a persisted assignment record
type Assignment struct {
	ID            string
	RosterID      string
	EmployeeID    string
	ShiftID       string
	SiteID        string
	Region        string
	Start         time.Time
	End           time.Time
	RegularHours  float64
	OvertimeHours float64

	RegularPay          decimal.Decimal
	OvertimePay         decimal.Decimal
	NightPremium        decimal.Decimal
	SundayPremium       decimal.Decimal
	HolidayPremium      decimal.Decimal
	TravelReimbursement decimal.Decimal
	TotalCost           decimal.Decimal

	PremiumType string
	Status      string
}

// Roster represents the summary record of one optimisation run
type Roster struct {
	ID              string
	OrgID           string
	StartDate       time.Time
	EndDate         time.Time
	Status          string
	FillRate        float64
	FairnessScore   float64
	TotalCost       decimal.Decimal
	RegularPay      decimal.Decimal
	OvertimePay     decimal.Decimal
	NightPremium    decimal.Decimal
	SundayPremium   decimal.Decimal
	HolidayPremium  decimal.Decimal
	TravelCost      decimal.Decimal
	ComplianceFlags []string
	CreatedAt       time.Time
}

// Scope selects the employees and shifts of one optimisation run
type Scope struct {
	StartDate time.Time
	EndDate   time.Time
	SiteIDs   []string
	OrgID     string
}
