package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
	"github.com/tms/tms-backend/pkg/messaging"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	var body struct {
		ManagerID Optional[int64]  `json:"manager_id"`
		Name      Optional[string] `json:"employee_name"`
		Email     Optional[string] `json:"email"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"manager_id": null, "employee_name": "Alice"}`), &body))

	assert.True(t, body.ManagerID.Set)
	assert.True(t, body.ManagerID.Null)
	assert.Nil(t, body.ManagerID.Ptr())

	assert.True(t, body.Name.Set)
	assert.False(t, body.Name.Null)
	assert.Equal(t, "Alice", *body.Name.Ptr())

	assert.False(t, body.Email.Set)
	assert.Nil(t, body.Email.Ptr())
}

func TestValidate(t *testing.T) {
	type request struct {
		EmployeeName string `json:"employee_name" validate:"required,max=100"`
		Email        string `json:"email" validate:"required,email"`
		Week         string `json:"week_starting" validate:"omitempty,calendardate"`
		MorningIn    string `json:"morning_in" validate:"omitempty,clock"`
	}

	t.Run("valid", func(t *testing.T) {
		err := Validate(request{EmployeeName: "Alice", Email: "a@x.com", Week: "01/01/2024", MorningIn: "09:00"})
		assert.NoError(t, err)
	})

	t.Run("missing fields use json names", func(t *testing.T) {
		err := Validate(request{})
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		assert.Contains(t, appErr.Details, "employee_name")
		assert.Contains(t, appErr.Details, "email")
	})

	t.Run("bad email alone is unprocessable", func(t *testing.T) {
		err := Validate(request{EmployeeName: "Alice", Email: "not-an-email"})
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)
	})

	t.Run("bad clock and date", func(t *testing.T) {
		err := Validate(request{EmployeeName: "Alice", Email: "a@x.com", Week: "2024-13-45", MorningIn: "9am"})
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "must be a time in HH:MM format", appErr.Details["morning_in"])
		assert.Contains(t, appErr.Details, "week_starting")
	})
}

func TestError(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Error(rr, errors.NotFound("employee"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
		assert.Equal(t, "employee not found", resp.Error.Message)
	})

	t.Run("unknown error hides detail", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Error(rr, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
	})
}

func TestPathID(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/employees/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/employees/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/employees/abc", nil))
	assert.True(t, errors.Is(gotErr, errors.ErrValidation))
}

func TestQueryID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/daily-logs?timesheet_id=7", nil)
	id, ok, err := QueryID(req, "timesheet_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok, err = QueryID(httptest.NewRequest(http.MethodGet, "/daily-logs", nil), "timesheet_id")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = QueryID(httptest.NewRequest(http.MethodGet, "/daily-logs?timesheet_id=-1", nil), "timesheet_id")
	assert.Error(t, err)
}

func TestRequestID_SetsCorrelationID(t *testing.T) {
	var correlationID string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID = messaging.CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-123", correlationID)
}

func TestRequestIDAndRecoverer(t *testing.T) {
	var seen string
	h := RequestID(Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
