package handler

import (
	"net/http"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/httputil"
	"github.com/tms/tms-backend/pkg/logger"
)

// ChangeHandler handles the daily log description audit trail
type ChangeHandler struct {
	service *service.ChangeService
	logger  *logger.Logger
}

// NewChangeHandler creates a new change handler
func NewChangeHandler(svc *service.ChangeService, log *logger.Logger) *ChangeHandler {
	return &ChangeHandler{
		service: svc,
		logger:  log,
	}
}

// CreateChangeRequest is the request body for adding an audit entry
type CreateChangeRequest struct {
	DailyLogID     int64  `json:"daily_log_id" validate:"required,gt=0"`
	NewDescription string `json:"new_description" validate:"required"`
}

// UpdateChangeRequest is the request body for correcting an audit entry
type UpdateChangeRequest struct {
	NewDescription string `json:"new_description" validate:"required"`
}

// List lists audit entries, restricted to ?daily_log_id when given
func (h *ChangeHandler) List(w http.ResponseWriter, r *http.Request) {
	logID, ok, err := httputil.QueryID(r, "daily_log_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var changes []domain.DailyLogChange
	if ok {
		changes, err = h.service.ListForLog(r.Context(), logID)
	} else {
		changes, err = h.service.List(r.Context())
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, changes)
}

// Create adds an audit entry to a daily log
func (h *ChangeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateChangeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	change, err := h.service.Add(r.Context(), req.DailyLogID, req.NewDescription)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, change)
}

// Get gets an audit entry by ID
func (h *ChangeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	change, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, change)
}

// Update corrects an audit entry
func (h *ChangeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateChangeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	change, err := h.service.Update(r.Context(), id, req.NewDescription)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, change)
}

// Delete deletes an audit entry
func (h *ChangeHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ListForLog lists a daily log's audit entries, oldest first
func (h *ChangeHandler) ListForLog(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	changes, err := h.service.ListForLog(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, changes)
}
