package handler

import (
	"fmt"
	"net/http"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/httputil"
	"github.com/tms/tms-backend/pkg/logger"
)

// DailyLogHandler handles daily log endpoints
type DailyLogHandler struct {
	service *service.DailyLogService
	logger  *logger.Logger
}

// NewDailyLogHandler creates a new daily log handler
func NewDailyLogHandler(svc *service.DailyLogService, log *logger.Logger) *DailyLogHandler {
	return &DailyLogHandler{
		service: svc,
		logger:  log,
	}
}

// PunchFields are the four clock members shared by create and bulk rows.
// Empty strings mean not punched.
type PunchFields struct {
	MorningIn    string `json:"morning_in" validate:"omitempty,clock"`
	MorningOut   string `json:"morning_out" validate:"omitempty,clock"`
	AfternoonIn  string `json:"afternoon_in" validate:"omitempty,clock"`
	AfternoonOut string `json:"afternoon_out" validate:"omitempty,clock"`
}

// CreateDailyLogRequest is the request body for creating a daily log
type CreateDailyLogRequest struct {
	TimesheetID int64  `json:"timesheet_id" validate:"required,gt=0"`
	LogDate     string `json:"log_date" validate:"required,calendardate"`
	PunchFields
	Description string `json:"description"`
}

// UpdateDailyLogRequest is the request body for a partial daily log update.
// A clock member set to null or "" clears it.
type UpdateDailyLogRequest struct {
	LogDate      *string                   `json:"log_date" validate:"omitempty,calendardate"`
	MorningIn    httputil.Optional[string] `json:"morning_in"`
	MorningOut   httputil.Optional[string] `json:"morning_out"`
	AfternoonIn  httputil.Optional[string] `json:"afternoon_in"`
	AfternoonOut httputil.Optional[string] `json:"afternoon_out"`
	Description  *string                   `json:"description"`
}

// BulkRowRequest is one row of a bulk save
type BulkRowRequest struct {
	Ref     *service.LogRef `json:"ref" validate:"required"`
	LogDate string          `json:"log_date" validate:"required,calendardate"`
	PunchFields
	Description string `json:"description"`
}

// BulkSaveRequest is the request body for saving a week of daily logs
type BulkSaveRequest struct {
	EmployeeID   int64            `json:"employee_id" validate:"required,gt=0"`
	WeekStarting string           `json:"week_starting" validate:"required,calendardate"`
	Rows         []BulkRowRequest `json:"rows" validate:"dive"`
}

// List lists daily logs, restricted to ?timesheet_id when given
func (h *DailyLogHandler) List(w http.ResponseWriter, r *http.Request) {
	timesheetID, ok, err := httputil.QueryID(r, "timesheet_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var logs []domain.DailyLog
	if ok {
		logs, err = h.service.ListByTimesheet(r.Context(), timesheetID)
	} else {
		logs, err = h.service.List(r.Context())
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, logs)
}

// Create creates a daily log
func (h *DailyLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDailyLogRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	date, err := domain.ParseDate("log_date", req.LogDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	punches, err := req.PunchFields.parse("")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	l, err := h.service.Create(r.Context(), service.CreateDailyLogInput{
		TimesheetID: req.TimesheetID,
		LogDate:     date,
		Punches:     punches,
		Description: req.Description,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, l)
}

// Get gets a daily log by ID
func (h *DailyLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, l)
}

// GetByDate gets the log for ?timesheet_id on ?log_date
func (h *DailyLogHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	timesheetID, ok, err := httputil.QueryID(r, "timesheet_id")
	if err == nil && !ok {
		_, err = httputil.RequireQuery(r, "timesheet_id")
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}
	date, err := requireQueryDate(r, "log_date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	l, err := h.service.GetByDate(r.Context(), timesheetID, date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, l)
}

// Update applies a partial update to a daily log
func (h *DailyLogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateDailyLogRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	in, err := req.input()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	l, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, l)
}

// Delete deletes a daily log
func (h *DailyLogHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ListByTimesheet lists a timesheet's logs in date order
func (h *DailyLogHandler) ListByTimesheet(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	logs, err := h.service.ListByTimesheet(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, logs)
}

// BulkSave saves a week of rows for one employee in one transaction
func (h *DailyLogHandler) BulkSave(w http.ResponseWriter, r *http.Request) {
	var req BulkSaveRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	in, err := req.input()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	res, err := h.service.BulkSave(r.Context(), in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// parse converts the clock members. prefix qualifies field names in errors.
func (p PunchFields) parse(prefix string) (service.Punches, error) {
	var out service.Punches
	fields := []struct {
		name string
		raw  string
		dst  **domain.ClockTime
	}{
		{"morning_in", p.MorningIn, &out.MorningIn},
		{"morning_out", p.MorningOut, &out.MorningOut},
		{"afternoon_in", p.AfternoonIn, &out.AfternoonIn},
		{"afternoon_out", p.AfternoonOut, &out.AfternoonOut},
	}
	for _, f := range fields {
		c, err := domain.ParseClockPtr(prefix+f.name, f.raw)
		if err != nil {
			return service.Punches{}, err
		}
		*f.dst = c
	}
	return out, nil
}

func (req UpdateDailyLogRequest) input() (service.UpdateDailyLogInput, error) {
	in := service.UpdateDailyLogInput{Description: req.Description}

	if req.LogDate != nil {
		date, err := domain.ParseDate("log_date", *req.LogDate)
		if err != nil {
			return in, err
		}
		in.LogDate = &date
	}

	var err error
	if in.MorningIn, err = clockPatch("morning_in", req.MorningIn); err != nil {
		return in, err
	}
	if in.MorningOut, err = clockPatch("morning_out", req.MorningOut); err != nil {
		return in, err
	}
	if in.AfternoonIn, err = clockPatch("afternoon_in", req.AfternoonIn); err != nil {
		return in, err
	}
	if in.AfternoonOut, err = clockPatch("afternoon_out", req.AfternoonOut); err != nil {
		return in, err
	}
	return in, nil
}

func (req BulkSaveRequest) input() (service.BulkSaveInput, error) {
	week, err := domain.ParseDate("week_starting", req.WeekStarting)
	if err != nil {
		return service.BulkSaveInput{}, err
	}

	rows := make([]service.BulkRow, len(req.Rows))
	for i, row := range req.Rows {
		prefix := fmt.Sprintf("rows[%d].", i)
		date, err := domain.ParseDate(prefix+"log_date", row.LogDate)
		if err != nil {
			return service.BulkSaveInput{}, err
		}
		punches, err := row.PunchFields.parse(prefix)
		if err != nil {
			return service.BulkSaveInput{}, err
		}
		rows[i] = service.BulkRow{
			Ref:         *row.Ref,
			LogDate:     date,
			Punches:     punches,
			Description: row.Description,
		}
	}

	return service.BulkSaveInput{
		EmployeeID:   req.EmployeeID,
		WeekStarting: week,
		Rows:         rows,
	}, nil
}
