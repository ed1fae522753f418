package handler

import (
	"net/http"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/httputil"
	"github.com/tms/tms-backend/pkg/logger"
)

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	service *service.EmployeeService
	logger  *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc *service.EmployeeService, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: svc,
		logger:  log,
	}
}

// CreateEmployeeRequest is the request body for creating an employee
type CreateEmployeeRequest struct {
	EmployeeName string  `json:"employee_name" validate:"required,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	ManagerID    *int64  `json:"manager_id"`
	ManagerName  *string `json:"manager_name"`
}

// UpdateEmployeeRequest is the request body for a partial employee update.
// An explicit null or 0 manager_id removes the manager.
type UpdateEmployeeRequest struct {
	EmployeeName *string                   `json:"employee_name" validate:"omitempty,max=100"`
	Email        *string                   `json:"email" validate:"omitempty,email"`
	ManagerID    httputil.Optional[int64]  `json:"manager_id"`
	ManagerName  httputil.Optional[string] `json:"manager_name"`
}

// SubordinatesResponse lists a manager's direct reports
type SubordinatesResponse struct {
	ManagerID    int64             `json:"manager_id"`
	ManagerName  string            `json:"manager_name"`
	Subordinates []domain.Employee `json:"subordinates"`
}

// HierarchyResponse is an employee with their managers, nearest first
type HierarchyResponse struct {
	Employee         domain.Employee   `json:"employee"`
	ManagerHierarchy []domain.Employee `json:"manager_hierarchy"`
}

// List lists all employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employees)
}

// Create creates a new employee
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	emp, err := h.service.Create(r.Context(), service.CreateEmployeeInput{
		EmployeeName: req.EmployeeName,
		Email:        req.Email,
		ManagerID:    req.ManagerID,
		ManagerName:  req.ManagerName,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, emp)
}

// Get gets an employee by ID
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// GetByEmail gets an employee by email, ignoring case
func (h *EmployeeHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := httputil.RequireQuery(r, "email")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	emp, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// Update applies a partial update to an employee
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateEmployeeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	emp, err := h.service.Update(r.Context(), id, service.UpdateEmployeeInput{
		EmployeeName: req.EmployeeName,
		Email:        req.Email,
		SetManager:   req.ManagerID.Set || req.ManagerName.Set,
		ManagerID:    req.ManagerID.Ptr(),
		ManagerName:  req.ManagerName.Ptr(),
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// Delete deletes an employee; their direct reports lose their manager
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Subordinates lists a manager's direct reports
func (h *EmployeeHandler) Subordinates(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	mgr, subs, err := h.service.Subordinates(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, SubordinatesResponse{
		ManagerID:    mgr.ID,
		ManagerName:  mgr.EmployeeName,
		Subordinates: subs,
	})
}

// WithoutManager lists employees who report to nobody
func (h *EmployeeHandler) WithoutManager(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.WithoutManager(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employees)
}

// ManagerHierarchy returns an employee's manager chain
func (h *EmployeeHandler) ManagerHierarchy(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	chain, err := h.service.ManagerChain(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, HierarchyResponse{Employee: *emp, ManagerHierarchy: chain})
}

// ManagerHierarchyByEmail returns the manager chain of the employee with the given email
func (h *EmployeeHandler) ManagerHierarchyByEmail(w http.ResponseWriter, r *http.Request) {
	h.ProfileWithHierarchy(w, r)
}

// ProfileWithHierarchy returns an employee looked up by email together with their manager chain
func (h *EmployeeHandler) ProfileWithHierarchy(w http.ResponseWriter, r *http.Request) {
	email, err := httputil.RequireQuery(r, "email")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	emp, chain, err := h.service.ProfileWithHierarchy(r.Context(), email)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, HierarchyResponse{Employee: *emp, ManagerHierarchy: chain})
}

// Tree returns the org tree below an employee
func (h *EmployeeHandler) Tree(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	tree, err := h.service.Tree(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tree)
}
