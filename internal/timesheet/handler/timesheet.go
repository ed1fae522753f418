package handler

import (
	"net/http"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/httputil"
	"github.com/tms/tms-backend/pkg/logger"
)

// TimesheetHandler handles timesheet endpoints
type TimesheetHandler struct {
	service *service.TimesheetService
	logger  *logger.Logger
}

// NewTimesheetHandler creates a new timesheet handler
func NewTimesheetHandler(svc *service.TimesheetService, log *logger.Logger) *TimesheetHandler {
	return &TimesheetHandler{
		service: svc,
		logger:  log,
	}
}

// CreateTimesheetRequest is the request body for creating a timesheet.
// employee_name is used when employee_id is absent.
type CreateTimesheetRequest struct {
	EmployeeID   *int64  `json:"employee_id" validate:"omitempty,gt=0"`
	EmployeeName *string `json:"employee_name" validate:"omitempty,max=100"`
	WeekStarting string  `json:"week_starting" validate:"required,calendardate"`
}

// UpdateTimesheetRequest is the request body for a partial timesheet update
type UpdateTimesheetRequest struct {
	EmployeeID   *int64  `json:"employee_id" validate:"omitempty,gt=0"`
	WeekStarting *string `json:"week_starting" validate:"omitempty,calendardate"`
}

// MoveTimesheetRequest moves the timesheet identified by employee name and
// week to another week.
type MoveTimesheetRequest struct {
	EmployeeName    string `json:"employee_name" validate:"required,max=100"`
	WeekStarting    string `json:"week_starting" validate:"required,calendardate"`
	NewWeekStarting string `json:"new_week_starting" validate:"required,calendardate"`
}

// List lists all timesheets
func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	timesheets, err := h.service.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, timesheets)
}

// Create returns the employee's timesheet for the week, creating it if needed.
// The status is 201 only when a row was inserted.
func (h *TimesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTimesheetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	week, err := domain.ParseDate("week_starting", req.WeekStarting)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	ts, created, err := h.service.Create(r.Context(), service.EmployeeRef{ID: req.EmployeeID, Name: req.EmployeeName}, week)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if created {
		httputil.Created(w, ts)
		return
	}
	httputil.JSON(w, http.StatusOK, ts)
}

// Get gets a timesheet by ID
func (h *TimesheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	ts, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ts)
}

// Update changes a timesheet's employee or week
func (h *TimesheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateTimesheetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	in := service.UpdateTimesheetInput{EmployeeID: req.EmployeeID}
	if req.WeekStarting != nil {
		week, err := domain.ParseDate("week_starting", *req.WeekStarting)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		in.WeekStarting = &week
	}

	ts, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ts)
}

// Delete deletes a timesheet and its daily logs
func (h *TimesheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ListByEmployee lists an employee's timesheets, newest week first
func (h *TimesheetHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	timesheets, err := h.service.ListByEmployee(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, timesheets)
}

// ListByWeek lists every timesheet for the week in ?week_starting
func (h *TimesheetHandler) ListByWeek(w http.ResponseWriter, r *http.Request) {
	week, err := requireQueryDate(r, "week_starting")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	timesheets, err := h.service.ListByWeek(r.Context(), week)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, timesheets)
}

// GetByEmployeeWeek gets the timesheet for ?employee_name and ?week_starting
func (h *TimesheetHandler) GetByEmployeeWeek(w http.ResponseWriter, r *http.Request) {
	name, week, err := employeeWeekQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	ts, err := h.service.GetByEmployeeWeek(r.Context(), name, week)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ts)
}

// UpdateByEmployeeWeek moves a timesheet to new_week_starting
func (h *TimesheetHandler) UpdateByEmployeeWeek(w http.ResponseWriter, r *http.Request) {
	var req MoveTimesheetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	oldWeek, err := domain.ParseDate("week_starting", req.WeekStarting)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	newWeek, err := domain.ParseDate("new_week_starting", req.NewWeekStarting)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	ts, err := h.service.UpdateWeek(r.Context(), req.EmployeeName, oldWeek, newWeek)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ts)
}

// DeleteByEmployeeWeek deletes the timesheet for ?employee_name and ?week_starting
func (h *TimesheetHandler) DeleteByEmployeeWeek(w http.ResponseWriter, r *http.Request) {
	name, week, err := employeeWeekQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteByEmployeeWeek(r.Context(), name, week); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

func employeeWeekQuery(r *http.Request) (string, domain.Date, error) {
	name, err := httputil.RequireQuery(r, "employee_name")
	if err != nil {
		return "", domain.Date{}, err
	}
	week, err := requireQueryDate(r, "week_starting")
	if err != nil {
		return "", domain.Date{}, err
	}
	return name, week, nil
}
