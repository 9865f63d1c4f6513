package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/benefits-example/internal/benefits"
	"github.com/vyrodovalexey/benefits-example/internal/logging"
	"github.com/vyrodovalexey/benefits-example/internal/model"
	"github.com/vyrodovalexey/benefits-example/internal/service"
	"github.com/vyrodovalexey/benefits-example/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

const msgInvalidBody = "invalid request body"

// EmployeeService is the facade the REST handler serves.
type EmployeeService interface {
	CreateEmployee(ctx context.Context, m model.EmployeeMutation) (*model.Employee, error)
	ReadEmployee(ctx context.Context, id string) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, id string, m model.EmployeeMutation) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]model.Employee, error)
	PreviewCost(ctx context.Context, id string, m model.EmployeeMutation) (benefits.Comparison, error)
	Paycheck(ctx context.Context, id string) (benefits.Paycheck, error)
}

// RESTHandler handles REST API requests for employees.
type RESTHandler struct {
	service EmployeeService
	logger  *zap.Logger
	ready   atomic.Bool
}

// NewRESTHandler creates a new RESTHandler instance. The handler starts out
// ready.
func NewRESTHandler(svc EmployeeService, logger *zap.Logger) *RESTHandler {
	h := &RESTHandler{
		service: svc,
		logger:  logger,
	}
	h.ready.Store(true)
	return h
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/employees", h.ListEmployees).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/employees", h.CreateEmployee).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/employees/{id}", h.GetEmployee).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/employees/{id}", h.UpdateEmployee).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/employees/{id}", h.DeleteEmployee).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/employees/{id}/paycheck", h.GetPaycheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/benefits/preview", h.PreviewCost).Methods(http.MethodPost)
}

// SetReady sets the readiness reported by /ready.
func (h *RESTHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ReadyCheck handles GET /ready requests.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, _ *http.Request) {
	if !h.ready.Load() {
		h.writeJSON(w, http.StatusServiceUnavailable, model.APIResponse[ReadyResponse]{
			Data:  ReadyResponse{Status: "not ready"},
			Error: "service is shutting down",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}

// ListEmployees handles GET /api/v1/employees requests.
func (h *RESTHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "list employees")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewListResponse(employees))
}

// GetEmployee handles GET /api/v1/employees/{id} requests.
func (h *RESTHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	employee, err := h.service.ReadEmployee(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "get employee")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(employee))
}

// CreateEmployee handles POST /api/v1/employees requests.
func (h *RESTHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var input model.EmployeeMutation
	if !h.decode(w, r, &input) {
		return
	}

	employee, err := h.service.CreateEmployee(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, err, "create employee")
		return
	}

	w.Header().Set("Location", "/api/v1/employees/"+employee.ID)
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(employee))
}

// UpdateEmployee handles PUT /api/v1/employees/{id} requests.
func (h *RESTHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var input model.EmployeeMutation
	if !h.decode(w, r, &input) {
		return
	}

	employee, err := h.service.UpdateEmployee(r.Context(), id, input)
	if err != nil {
		h.writeServiceError(w, r, err, "update employee")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(employee))
}

// DeleteEmployee handles DELETE /api/v1/employees/{id} requests.
func (h *RESTHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.DeleteEmployee(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "delete employee")
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}

// GetPaycheck handles GET /api/v1/employees/{id}/paycheck requests.
func (h *RESTHandler) GetPaycheck(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	paycheck, err := h.service.Paycheck(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "get paycheck")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(paycheck))
}

// PreviewCost handles POST /api/v1/benefits/preview requests.
func (h *RESTHandler) PreviewCost(w http.ResponseWriter, r *http.Request) {
	var input model.CostPreviewRequest
	if !h.decode(w, r, &input) {
		return
	}

	comparison, err := h.service.PreviewCost(r.Context(), input.EmployeeID, input.EmployeeMutation)
	if err != nil {
		h.writeServiceError(w, r, err, "preview cost")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(comparison))
}

// decode reads a JSON body into dst and writes a 400 response on failure.
func (h *RESTHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// writeServiceError maps facade errors to HTTP responses. The facade message
// is passed through to the client.
func (h *RESTHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status := statusFor(err)

	log := logging.FromContext(r.Context(), h.logger).With(zap.String("operation", operation))
	if id := mux.Vars(r)["id"]; id != "" {
		log = log.With(zap.String("employee_id", id))
	}

	switch {
	case status >= http.StatusInternalServerError:
		log.Error("employee operation failed", zap.Error(err))
	case status != http.StatusNotFound:
		log.Warn("employee operation rejected", zap.Int("status", status), zap.Error(err))
	}

	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		h.writeError(w, status, "internal server error")
		return
	}
	h.writeError(w, status, svcErr.Message)
}

// statusFor returns the HTTP status for a facade error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPersistence):
		if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, store.ErrIDImmutable) {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error envelope with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.NewErrorResponse[any](message))
}
