package db

import (
	"context"

	"github.com/jakechorley/guard-roster/pkg/core/model"
)

// RosterReader supplies fully materialised employees and shifts for a scope
type RosterReader interface {
	GetEmployees(ctx context.Context, scope Scope) ([]*model.Employee, error)
	GetShifts(ctx context.Context, scope Scope) ([]*model.Shift, error)
}

// RosterWriter persists optimisation output
type RosterWriter interface {
	InsertRoster(ctx context.Context, roster *Roster, assignments []Assignment) error
}

// Database defines the interface for all database operations.
// Both the YAML-backed filestore.Store and postgres.DB implement this interface.
type Database interface {
	RosterReader
	RosterWriter
}
