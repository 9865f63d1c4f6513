package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vyrodovalexey/benefits-example/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
// Employees are kept in insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	employees map[string]model.Employee
	order     []string
	newID     IDGenerator
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithIDGenerator replaces the default ID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		employees: make(map[string]model.Employee),
		newID:     NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all employees in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.Employee, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list employees: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]model.Employee, 0, len(s.order))
	for _, id := range s.order {
		employees = append(employees, s.employees[id].Clone())
	}

	return employees, nil
}

// Get retrieves an employee by its ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Employee, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get employee: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, exists := s.employees[id]
	if !exists {
		return nil, ErrNotFound
	}

	employee = employee.Clone()
	return &employee, nil
}

// Create adds a new employee and returns it with generated IDs.
func (s *MemoryStore) Create(ctx context.Context, employee *model.Employee) (*model.Employee, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create employee: %w", ctx.Err())
	default:
	}

	if employee == nil {
		return nil, fmt.Errorf("create employee: %w", ErrNilEmployee)
	}

	if err := checkDependentIDs(employee.Dependents); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.ID != "" {
		if _, exists := s.employees[employee.ID]; exists {
			return nil, ErrAlreadyExists
		}
	}

	newEmployee := employee.Clone()
	if newEmployee.ID == "" {
		newEmployee.ID = s.uniqueID()
	}
	s.assignDependentIDs(newEmployee.Dependents)

	s.employees[newEmployee.ID] = newEmployee
	s.order = append(s.order, newEmployee.ID)

	created := newEmployee.Clone()
	return &created, nil
}

// Update replaces an existing employee, keeping its position in the list.
func (s *MemoryStore) Update(ctx context.Context, id string, employee *model.Employee) (*model.Employee, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update employee: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	if employee == nil {
		return nil, fmt.Errorf("update employee: %w", ErrNilEmployee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[id]; !exists {
		return nil, ErrNotFound
	}

	if employee.ID != "" && employee.ID != id {
		return nil, ErrIDImmutable
	}

	if err := checkDependentIDs(employee.Dependents); err != nil {
		return nil, fmt.Errorf("update employee %s: %w", id, err)
	}

	updatedEmployee := employee.Clone()
	updatedEmployee.ID = id
	s.assignDependentIDs(updatedEmployee.Dependents)

	s.employees[id] = updatedEmployee

	updated := updatedEmployee.Clone()
	return &updated, nil
}

// Delete removes an employee by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete employee: %w", ctx.Err())
	default:
	}

	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[id]; !exists {
		return ErrNotFound
	}

	delete(s.employees, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}

	return nil
}

// Clear removes every employee.
func (s *MemoryStore) Clear(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("clear employees: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.employees)
	s.order = nil

	return nil
}

// uniqueID returns a generated ID not used by any stored employee.
// Callers must hold the write lock.
func (s *MemoryStore) uniqueID() string {
	for {
		id := s.newID()
		if _, exists := s.employees[id]; !exists && id != "" {
			return id
		}
	}
}

// checkDependentIDs rejects a dependent list in which two dependents carry
// the same supplied ID.
func checkDependentIDs(dependents []model.Dependent) error {
	seen := make(map[string]bool, len(dependents))
	for _, d := range dependents {
		if d.ID == "" {
			continue
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateDependentID, d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// assignDependentIDs gives every dependent without an ID one that is unique
// within the list. Existing IDs are kept.
func (s *MemoryStore) assignDependentIDs(dependents []model.Dependent) {
	used := make(map[string]bool, len(dependents))
	for _, d := range dependents {
		if d.ID != "" {
			used[d.ID] = true
		}
	}

	for i := range dependents {
		if dependents[i].ID != "" {
			continue
		}
		id := s.newID()
		for id == "" || used[id] {
			id = s.newID()
		}
		used[id] = true
		dependents[i].ID = id
	}
}
