package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/report"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/httputil"
	"github.com/tms/tms-backend/pkg/logger"
)

// DashboardHandler serves the per-employee weekly view
type DashboardHandler struct {
	service *service.DashboardService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
	}
}

// Get returns the dashboard for ?email. ?week_starting is optional.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	email, err := httputil.RequireQuery(r, "email")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	week, ok, err := queryDate(r, "week_starting")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var weekPtr *domain.Date
	if ok {
		weekPtr = &week
	}
	view, err := h.service.Assemble(r.Context(), email, weekPtr)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// Export streams the week for ?email and ?week_starting as an Excel workbook
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	email, err := httputil.RequireQuery(r, "email")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	week, err := requireQueryDate(r, "week_starting")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.Assemble(r.Context(), email, &week)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWeek(&buf, view, week); err != nil {
		h.logger.Error().Err(err).Int64("employee_id", view.Employee.ID).Msg("failed to render export")
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(view.Employee, week)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
