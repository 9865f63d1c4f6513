// Package service implements the employee benefits facade. It validates and
// normalizes input, computes benefits costs and persists employees through a
// store.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/benefits-example/internal/benefits"
	"github.com/vyrodovalexey/benefits-example/internal/logging"
	"github.com/vyrodovalexey/benefits-example/internal/model"
	"github.com/vyrodovalexey/benefits-example/internal/store"
)

// User-facing error messages.
const (
	msgFirstNameRequired = "First name is required."
	msgCreateFailed      = "There was a problem creating the employee record."
	msgUpdateFailed      = "There was a problem updating the employee record."
	msgReadFailed        = "There was a problem retrieving the employee record."
	msgListFailed        = "There was a problem retrieving the employee records."
	msgDeleteFailed      = "There was a problem deleting the employee record."
	msgDuplicateDepID    = "Dependent IDs must be unique."
)

// Publisher receives employee change events after successful writes.
type Publisher interface {
	Publish(ctx context.Context, event model.EmployeeEvent) error
}

// EmployeeService is the facade over the benefits calculator and the store.
// It is the only writer of its store.
type EmployeeService struct {
	store     store.Store
	logger    *zap.Logger
	delayer   Delayer
	publisher Publisher
	now       func() time.Time
}

// Option configures an EmployeeService.
type Option func(*EmployeeService)

// WithDelayer sets the latency hook invoked by every operation.
func WithDelayer(d Delayer) Option {
	return func(s *EmployeeService) {
		if d != nil {
			s.delayer = d
		}
	}
}

// WithPublisher sets the destination for employee change events.
func WithPublisher(p Publisher) Option {
	return func(s *EmployeeService) {
		s.publisher = p
	}
}

// NewEmployeeService creates a new EmployeeService. Without options it has no
// artificial latency and publishes no events.
func NewEmployeeService(s store.Store, logger *zap.Logger, opts ...Option) *EmployeeService {
	svc := &EmployeeService{
		store:   s,
		logger:  logger,
		delayer: NoDelay{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateEmployee creates an employee from the mutation. FirstName is required;
// LastName defaults to "" and Dependents to an empty list.
func (s *EmployeeService) CreateEmployee(ctx context.Context, m model.EmployeeMutation) (*model.Employee, error) {
	s.delayer.Delay()

	employee, err := s.create(ctx, m)
	observeOperation("create", err)
	return employee, err
}

// ReadEmployee returns the employee with the given ID.
func (s *EmployeeService) ReadEmployee(ctx context.Context, id string) (*model.Employee, error) {
	s.delayer.Delay()

	employee, err := s.read(ctx, id)
	observeOperation("read", err)
	return employee, err
}

// UpdateEmployee merges the mutation into the stored employee and recomputes
// its benefits cost. A supplied field replaces the current value only when it
// differs from it; absent fields keep their current value. A non-nil
// Dependents slice replaces the dependent list.
//
// The current record is read before the latency hook runs and written after
// it, so concurrent updates are last-write-wins.
func (s *EmployeeService) UpdateEmployee(
	ctx context.Context,
	id string,
	m model.EmployeeMutation,
) (*model.Employee, error) {
	employee, err := s.update(ctx, id, m)
	observeOperation("update", err)
	return employee, err
}

// DeleteEmployee removes the employee with the given ID.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id string) error {
	s.delayer.Delay()

	err := s.delete(ctx, id)
	observeOperation("delete", err)
	return err
}

// GetAll returns every employee in store order.
func (s *EmployeeService) GetAll(ctx context.Context) ([]model.Employee, error) {
	s.delayer.Delay()

	employees, err := s.store.List(ctx)
	if err != nil {
		s.log(ctx).Error("failed to list employees", zap.Error(err))
		err = newError(ErrPersistence, msgListFailed, err)
	}
	observeOperation("list", err)
	return employees, err
}

// PreviewCost reports the benefits cost an employee would have after applying
// the mutation, without writing anything. With an empty id the mutation is
// priced as a new employee and the current cost is zero.
func (s *EmployeeService) PreviewCost(
	ctx context.Context,
	id string,
	m model.EmployeeMutation,
) (benefits.Comparison, error) {
	if err := validateMutation(m); err != nil {
		return benefits.Comparison{}, err
	}

	if id == "" {
		if m.FirstName == "" {
			return benefits.Comparison{}, newError(ErrValidation, msgFirstNameRequired, nil)
		}
		normalized := normalize(m)
		return benefits.Compare(0, benefits.Cost(normalized.FirstName, normalized.Dependents)), nil
	}

	current, err := s.read(ctx, id)
	if err != nil {
		return benefits.Comparison{}, err
	}

	merged := merge(current, m)
	return benefits.Compare(current.BenefitsCost, merged.BenefitsCost), nil
}

// Paycheck returns the per-pay-period pay breakdown of an employee.
func (s *EmployeeService) Paycheck(ctx context.Context, id string) (benefits.Paycheck, error) {
	employee, err := s.ReadEmployee(ctx, id)
	if err != nil {
		return benefits.Paycheck{}, err
	}
	return benefits.PaycheckFor(employee.BenefitsCost), nil
}

// Seed creates the given employees without artificial latency and returns
// how many were created.
func (s *EmployeeService) Seed(ctx context.Context, fixtures []model.EmployeeMutation) (int, error) {
	created := 0
	for _, m := range fixtures {
		if _, err := s.create(ctx, m); err != nil {
			return created, fmt.Errorf("seeding employee %q: %w", m.FirstName, err)
		}
		created++
	}

	s.log(ctx).Info("employees seeded", zap.Int("count", created))
	return created, nil
}

func (s *EmployeeService) create(ctx context.Context, m model.EmployeeMutation) (*model.Employee, error) {
	if m.FirstName == "" {
		return nil, newError(ErrValidation, msgFirstNameRequired, nil)
	}

	if err := validateMutation(m); err != nil {
		return nil, err
	}

	toCreate := toEmployee(normalize(m))

	employee, err := s.store.Create(ctx, &toCreate)
	if err != nil {
		return nil, s.writeFailed(ctx, err, "", msgCreateFailed)
	}

	employeesTotal.Inc()
	benefitsCostPerPayPeriod.Observe(employee.BenefitsCost)
	s.publish(ctx, model.EventEmployeeCreated, employee.ID, employee)

	s.log(ctx).Debug("employee created",
		zap.String("employee_id", employee.ID),
		zap.Int("dependents", len(employee.Dependents)),
		zap.Float64("benefits_cost", employee.BenefitsCost),
	)

	return employee, nil
}

func (s *EmployeeService) read(ctx context.Context, id string) (*model.Employee, error) {
	employee, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(ctx, err, id, msgReadFailed)
	}
	return employee, nil
}

func (s *EmployeeService) update(ctx context.Context, id string, m model.EmployeeMutation) (*model.Employee, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}

	current, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}

	s.delayer.Delay()

	toUpdate := merge(current, m)

	employee, err := s.store.Update(ctx, id, &toUpdate)
	if err != nil {
		return nil, s.writeFailed(ctx, err, id, msgUpdateFailed)
	}

	benefitsCostPerPayPeriod.Observe(employee.BenefitsCost)
	s.publish(ctx, model.EventEmployeeUpdated, employee.ID, employee)

	return employee, nil
}

func (s *EmployeeService) delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.notFoundOr(ctx, err, id, msgDeleteFailed)
	}

	employeesTotal.Dec()
	s.publish(ctx, model.EventEmployeeDeleted, id, nil)
	return nil
}

// notFoundOr maps a missing employee to ErrNotFound and anything else to
// ErrPersistence with the given message.
func (s *EmployeeService) notFoundOr(ctx context.Context, err error, id, message string) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return newError(ErrNotFound, msgNotFound(id), err)
	}

	s.log(ctx).Error("store operation failed",
		zap.String("employee_id", id),
		zap.Error(err),
	)
	return newError(ErrPersistence, message, err)
}

// writeFailed maps a rejected store write. Duplicate dependent IDs are a
// caller mistake and become ErrValidation; anything else is ErrPersistence
// with the given message.
func (s *EmployeeService) writeFailed(ctx context.Context, err error, id, message string) error {
	if errors.Is(err, store.ErrDuplicateDependentID) {
		return newError(ErrValidation, msgDuplicateDepID, err)
	}

	log := s.log(ctx)
	if id != "" {
		log = log.With(zap.String("employee_id", id))
	}
	log.Error("employee write failed", zap.Error(err))
	return newError(ErrPersistence, message, err)
}

// log returns the service logger annotated with the request ID of ctx.
func (s *EmployeeService) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *EmployeeService) publish(ctx context.Context, eventType, id string, employee *model.Employee) {
	if s.publisher == nil {
		return
	}

	event := model.EmployeeEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		EmployeeID: id,
		Employee:   employee,
		Timestamp:  s.now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log(ctx).Warn("failed to publish employee event",
			zap.String("event_type", eventType),
			zap.String("employee_id", id),
			zap.Error(err),
		)
	}
}

func msgNotFound(id string) string {
	return "Not Found, id: " + id
}

func validateMutation(m model.EmployeeMutation) error {
	if err := m.Validate(); err != nil {
		return newError(ErrValidation, err.Error(), err)
	}
	return nil
}

// normalize fills defaults for optional fields.
func normalize(m model.EmployeeMutation) model.EmployeeMutation {
	if m.Dependents == nil {
		m.Dependents = []model.Dependent{}
	}
	return m
}

// toEmployee builds a new employee record with a freshly computed cost.
func toEmployee(m model.EmployeeMutation) model.Employee {
	return model.Employee{
		Person: model.Person{
			FirstName: m.FirstName,
			LastName:  m.LastName,
		},
		Dependents:   m.Dependents,
		BenefitsCost: benefits.Cost(m.FirstName, m.Dependents),
	}
}

// merge applies a mutation to the current employee and recomputes the cost.
// A supplied value equal to the current one is treated as absent.
func merge(current *model.Employee, m model.EmployeeMutation) model.Employee {
	firstName := current.FirstName
	if m.FirstName != "" && m.FirstName != current.FirstName {
		firstName = m.FirstName
	}

	lastName := current.LastName
	if m.LastName != "" && m.LastName != current.LastName {
		lastName = m.LastName
	}

	dependents := current.Dependents
	if m.Dependents != nil {
		dependents = m.Dependents
	}

	return model.Employee{
		ID: current.ID,
		Person: model.Person{
			FirstName: firstName,
			LastName:  lastName,
		},
		Dependents:   dependents,
		BenefitsCost: benefits.Cost(firstName, dependents),
	}
}
