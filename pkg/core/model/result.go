package model

import "github.com/shopspring/decimal"

// Status is the outcome of an optimisation run or partition
type Status string

const (
	StatusOptimal           Status = "optimal"
	StatusFeasible          Status = "feasible"
	StatusInfeasible        Status = "infeasible"
	StatusError             Status = "error"
	StatusPartialError      Status = "partial_error"
	StatusPartialInfeasible Status = "partial_infeasible"
)

// UnfilledShift reports guard slots that could not be filled
type UnfilledShift struct {
	ShiftID string
	SiteID  string
	Region  string

	// Missing is the number of guards still required
	Missing int

	Reasons []string
}

// PartitionReport summarises one partition's solve
type PartitionReport struct {
	Region          string
	Status          Status
	Employees       int
	Shifts          int
	Assignments     int
	TotalCost       decimal.Decimal
	FairnessScore   float64
	Error           string
	DurationSeconds float64
}

// OptimizationResult is the aggregate returned by every optimisation run
type OptimizationResult struct {
	Assignments    []Assignment
	UnfilledShifts []UnfilledShift
	TotalCost      decimal.Decimal
	FairnessScore  float64
	Status         Status

	// EmployeeHours are paid hours per eligible employee (zero for eligible but unassigned)
	EmployeeHours map[string]float64

	Diagnostics map[string]any
	Partitions  []PartitionReport
}
