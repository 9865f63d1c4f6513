// Package model defines data structures used throughout the application.
package model

import (
	"slices"
	"time"
)

// Validation limits, enforced through the "name" and "dependents" tags.
const (
	MaxNameLength  = 255
	DependentLimit = 10
)

// Person holds the name fields shared by employees and dependents.
type Person struct {
	FirstName string `json:"first_name" validate:"required,name"`
	LastName  string `json:"last_name" validate:"name"`
}

// Dependent is a person covered by an employee's benefits.
// It has no lifecycle of its own and is always stored inside its Employee.
type Dependent struct {
	Person
	ID string `json:"id,omitempty"`
}

// Employee represents an employee record and its derived benefits cost.
type Employee struct {
	Person
	ID         string      `json:"id,omitempty"`
	Dependents []Dependent `json:"dependents"`
	// BenefitsCost is the benefits cost per pay period. It is always derived
	// from FirstName and Dependents and is never set by callers.
	BenefitsCost float64 `json:"benefits_cost"`
}

// Clone returns a deep copy of the employee.
func (e Employee) Clone() Employee {
	e.Dependents = slices.Clone(e.Dependents)
	if e.Dependents == nil {
		e.Dependents = []Dependent{}
	}
	return e
}

// EmployeeMutation carries the fields a caller may supply when creating or
// updating an employee. Empty strings and a nil Dependents slice mean the
// field was not supplied.
type EmployeeMutation struct {
	FirstName  string      `json:"first_name,omitempty" validate:"name"`
	LastName   string      `json:"last_name,omitempty" validate:"name"`
	Dependents []Dependent `json:"dependents,omitempty" validate:"omitempty,dependents,dive"`
}

// CostPreviewRequest asks for the benefits cost an employee would have after
// applying Mutation. An empty EmployeeID previews a new employee.
type CostPreviewRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
	EmployeeMutation
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ListResponse is the envelope of collection responses. Data is always
// present and encodes an empty collection as [].
type ListResponse[T any] struct {
	Success bool `json:"success"`
	Data    []T  `json:"data"`
}

// NewListResponse creates a successful collection response.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Success: true,
		Data:    items,
	}
}

// Employee event types. They double as pub/sub topic names.
const (
	EventEmployeeCreated = "employee.created"
	EventEmployeeUpdated = "employee.updated"
	EventEmployeeDeleted = "employee.deleted"
)

// EventTypes lists every employee event type.
var EventTypes = []string{
	EventEmployeeCreated,
	EventEmployeeUpdated,
	EventEmployeeDeleted,
}

// EmployeeEvent describes a change to the employee collection. Employee is
// omitted for deletions.
type EmployeeEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EmployeeID string    `json:"employee_id"`
	Employee   *Employee `json:"employee,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
