// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/benefits-example/internal/model"
)

// Store errors.
var (
	ErrNotFound      = errors.New("employee not found")
	ErrAlreadyExists = errors.New("employee already exists")
	ErrInvalidID     = errors.New("invalid employee ID")
	ErrIDImmutable   = errors.New("employee ID cannot be changed")
	ErrNilEmployee   = errors.New("employee cannot be nil")

	ErrDuplicateDependentID = errors.New("dependent IDs must be unique within an employee")
)

// Store defines the interface for employee storage operations.
type Store interface {
	// List returns all employees in insertion order.
	List(ctx context.Context) ([]model.Employee, error)

	// Get retrieves an employee by its ID.
	Get(ctx context.Context, id string) (*model.Employee, error)

	// Create adds a new employee and returns it with generated IDs.
	// An employee whose ID is already stored is rejected with ErrAlreadyExists.
	// Supplied dependent IDs must be distinct (ErrDuplicateDependentID).
	Create(ctx context.Context, employee *model.Employee) (*model.Employee, error)

	// Update replaces an existing employee. The ID cannot be changed and
	// supplied dependent IDs must be distinct.
	Update(ctx context.Context, id string, employee *model.Employee) (*model.Employee, error)

	// Delete removes an employee by its ID.
	Delete(ctx context.Context, id string) error

	// Clear removes every employee.
	Clear(ctx context.Context) error
}
