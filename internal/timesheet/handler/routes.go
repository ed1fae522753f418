// Package handler exposes the timesheet services over HTTP.
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/httputil"
)

// Handlers groups the resource handlers mounted by Register.
type Handlers struct {
	Employees  *EmployeeHandler
	Timesheets *TimesheetHandler
	DailyLogs  *DailyLogHandler
	Changes    *ChangeHandler
	Dashboard  *DashboardHandler
}

// Register mounts every timesheet route under /api.
func Register(r chi.Router, h Handlers) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.Employees.List)
			r.Post("/", h.Employees.Create)
			r.Get("/by-email", h.Employees.GetByEmail)
			r.Get("/without-manager", h.Employees.WithoutManager)
			r.Get("/manager-hierarchy-by-email", h.Employees.ManagerHierarchyByEmail)
			r.Get("/profile-with-hierarchy", h.Employees.ProfileWithHierarchy)
			r.Get("/dashboard", h.Dashboard.Get)
			r.Get("/dashboard/export", h.Dashboard.Export)
			r.Get("/{id}", h.Employees.Get)
			r.Put("/{id}", h.Employees.Update)
			r.Delete("/{id}", h.Employees.Delete)
			r.Get("/{id}/subordinates", h.Employees.Subordinates)
			r.Get("/{id}/manager-hierarchy", h.Employees.ManagerHierarchy)
			r.Get("/{id}/tree", h.Employees.Tree)
			r.Get("/{id}/timesheets", h.Timesheets.ListByEmployee)
		})

		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", h.Timesheets.List)
			r.Post("/", h.Timesheets.Create)
			r.Get("/by-employee-name-week", h.Timesheets.GetByEmployeeWeek)
			r.Put("/by-employee-name-week", h.Timesheets.UpdateByEmployeeWeek)
			r.Delete("/by-employee-name-week", h.Timesheets.DeleteByEmployeeWeek)
			r.Get("/{id}", h.Timesheets.Get)
			r.Put("/{id}", h.Timesheets.Update)
			r.Delete("/{id}", h.Timesheets.Delete)
			r.Get("/{id}/daily-logs", h.DailyLogs.ListByTimesheet)
		})
		r.Get("/timesheets-by-week", h.Timesheets.ListByWeek)

		r.Route("/daily-logs", func(r chi.Router) {
			r.Get("/", h.DailyLogs.List)
			r.Post("/", h.DailyLogs.Create)
			r.Post("/save", h.DailyLogs.BulkSave)
			r.Get("/by-date", h.DailyLogs.GetByDate)
			r.Get("/{id}", h.DailyLogs.Get)
			r.Put("/{id}", h.DailyLogs.Update)
			r.Delete("/{id}", h.DailyLogs.Delete)
			r.Get("/{id}/changes", h.Changes.ListForLog)
		})

		r.Route("/daily-log-changes", func(r chi.Router) {
			r.Get("/", h.Changes.List)
			r.Post("/", h.Changes.Create)
			r.Get("/{id}", h.Changes.Get)
			r.Put("/{id}", h.Changes.Update)
			r.Delete("/{id}", h.Changes.Delete)
		})
	})
}

// queryDate parses the query parameter key as a date. ok is false when it is absent.
func queryDate(r *http.Request, key string) (d domain.Date, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return domain.Date{}, false, nil
	}
	d, err = domain.ParseDate(key, raw)
	return d, true, err
}

// requireQueryDate parses the required query parameter key as a date.
func requireQueryDate(r *http.Request, key string) (domain.Date, error) {
	raw, err := httputil.RequireQuery(r, key)
	if err != nil {
		return domain.Date{}, err
	}
	return domain.ParseDate(key, raw)
}

// decodeAndValidate decodes the JSON body into v and runs its validate tags.
func decodeAndValidate(r *http.Request, v any) error {
	if err := httputil.DecodeJSON(r, v); err != nil {
		return err
	}
	return httputil.Validate(v)
}

// clockPatch converts an optional HH:MM member. Null and "" clear the field.
func clockPatch(field string, o httputil.Optional[string]) (service.ClockPatch, error) {
	if !o.Set {
		return service.ClockPatch{}, nil
	}
	if o.Null {
		return service.ClockPatch{Set: true}, nil
	}
	c, err := domain.ParseClockPtr(field, o.Value)
	if err != nil {
		return service.ClockPatch{}, err
	}
	return service.ClockPatch{Set: true, Value: c}, nil
}
