package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

// ErrInvalidInput marks malformed employee or shift records
var ErrInvalidInput = errors.New("invalid input")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateEmployees checks every employee record and returns all failures combined
func ValidateEmployees(employees []*Employee) error {
	var err error
	seen := make(map[string]bool)
	for i, emp := range employees {
		if emp == nil {
			err = multierr.Append(err, fmt.Errorf("%w: employee[%d] is nil", ErrInvalidInput, i))
			continue
		}
		if vErr := validate.Struct(emp); vErr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: employee %q: %v", ErrInvalidInput, emp.ID, vErr))
		}
		if emp.HourlyRate.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("%w: employee %q has negative hourly rate", ErrInvalidInput, emp.ID))
		}
		if seen[emp.ID] {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate employee id %q", ErrInvalidInput, emp.ID))
		}
		seen[emp.ID] = true
	}
	return err
}

// ValidateShifts checks every shift record and returns all failures combined
func ValidateShifts(shifts []*Shift) error {
	var err error
	seen := make(map[string]bool)
	for i, shift := range shifts {
		if shift == nil {
			err = multierr.Append(err, fmt.Errorf("%w: shift[%d] is nil", ErrInvalidInput, i))
			continue
		}
		if vErr := validate.Struct(shift); vErr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: shift %q: %v", ErrInvalidInput, shift.ID, vErr))
		}
		if seen[shift.ID] {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate shift id %q", ErrInvalidInput, shift.ID))
		}
		seen[shift.ID] = true
	}
	return err
}
