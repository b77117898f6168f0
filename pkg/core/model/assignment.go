package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AssignmentStatus is the lifecycle state of an assignment
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentConfirmed AssignmentStatus = "confirmed"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending:   {AssignmentConfirmed, AssignmentCancelled},
	AssignmentConfirmed: {AssignmentCompleted, AssignmentCancelled},
}

// CanTransition reports whether an assignment may move from s to next
func (s AssignmentStatus) CanTransition(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Premium type tags
const (
	PremiumRegular       = "regular"
	PremiumSunday        = "sunday"
	PremiumHolidayPrefix = "holiday:"
)

// PayBreakdown is the cost of one assignment.
// Sunday and holiday multipliers are already folded into RegularPay/OvertimePay;
// SundayPremium and HolidayPremium report the uplift share for information only
// and are not part of TotalCost.
type PayBreakdown struct {
	RegularPay          decimal.Decimal
	OvertimePay         decimal.Decimal
	NightPremium        decimal.Decimal
	SundayPremium       decimal.Decimal
	HolidayPremium      decimal.Decimal
	TravelReimbursement decimal.Decimal
	TotalCost           decimal.Decimal
}

// Add returns the element-wise sum of two breakdowns
func (p PayBreakdown) Add(other PayBreakdown) PayBreakdown {
	return PayBreakdown{
		RegularPay:          p.RegularPay.Add(other.RegularPay),
		OvertimePay:         p.OvertimePay.Add(other.OvertimePay),
		NightPremium:        p.NightPremium.Add(other.NightPremium),
		SundayPremium:       p.SundayPremium.Add(other.SundayPremium),
		HolidayPremium:      p.HolidayPremium.Add(other.HolidayPremium),
		TravelReimbursement: p.TravelReimbursement.Add(other.TravelReimbursement),
		TotalCost:           p.TotalCost.Add(other.TotalCost),
	}
}

// Assignment is a decision to place one employee on one shift
type Assignment struct {
	ID         string
	EmployeeID string
	ShiftID    string
	SiteID     string
	Region     string

	Interval Interval

	RegularHours  float64
	OvertimeHours float64

	Pay         PayBreakdown
	PremiumType string
	Status      AssignmentStatus
}

// Transition moves the assignment to next, enforcing the lifecycle
func (a *Assignment) Transition(next AssignmentStatus) error {
	if !a.Status.CanTransition(next) {
		return fmt.Errorf("invalid assignment transition %s -> %s", a.Status, next)
	}
	a.Status = next
	return nil
}

// Hours returns the total paid hours of the assignment
func (a *Assignment) Hours() float64 {
	return a.RegularHours + a.OvertimeHours
}
