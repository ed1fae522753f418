package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
	"github.com/tms/tms-backend/pkg/messaging"
)

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes input and publishes", func(t *testing.T) {
		h := newHarness(t)

		emp, err := h.employees.Create(ctx, service.CreateEmployeeInput{
			EmployeeName: "  Alice  ",
			Email:        " a@x.com ",
		})

		require.NoError(t, err)
		assert.NotZero(t, emp.ID)
		assert.Equal(t, "Alice", emp.EmployeeName)
		assert.Equal(t, "a@x.com", emp.Email)
		assert.Nil(t, emp.ManagerID)
		assert.Equal(t, []string{messaging.EventEmployeeCreated}, h.events.Types())
	})

	t.Run("manager by name ignores case", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)

		bob, err := h.employees.Create(ctx, service.CreateEmployeeInput{
			EmployeeName: "Bob",
			Email:        "b@x.com",
			ManagerName:  domain.Ptr("ALICE"),
		})

		require.NoError(t, err)
		require.NotNil(t, bob.ManagerID)
		assert.Equal(t, alice.ID, *bob.ManagerID)
	})

	t.Run("ambiguous manager name", func(t *testing.T) {
		h := newHarness(t)
		h.employee(t, "Alice", "a1@x.com", nil)
		h.employee(t, "alice", "a2@x.com", nil)

		_, err := h.employees.Create(ctx, service.CreateEmployeeInput{
			EmployeeName: "Bob",
			Email:        "b@x.com",
			ManagerName:  domain.Ptr("Alice"),
		})

		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("unknown manager", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.employees.Create(ctx, service.CreateEmployeeInput{
			EmployeeName: "Bob",
			Email:        "b@x.com",
			ManagerID:    domain.Ptr(int64(99)),
		})

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "manager not found", appErr.Message)
	})

	t.Run("duplicate email ignores case", func(t *testing.T) {
		h := newHarness(t)
		h.employee(t, "Alice", "a@x.com", nil)

		_, err := h.employees.Create(ctx, service.CreateEmployeeInput{EmployeeName: "Other", Email: "A@X.COM"})

		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("bad email is unprocessable", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.employees.Create(ctx, service.CreateEmployeeInput{EmployeeName: "Alice", Email: "not-an-email"})

		assert.ErrorIs(t, err, errors.ErrUnprocessable)
		assert.Empty(t, h.events.Types())
	})

	t.Run("missing name", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.employees.Create(ctx, service.CreateEmployeeInput{EmployeeName: " ", Email: "a@x.com"})

		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestEmployeeService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)
		bob := h.employee(t, "Bob", "b@x.com", &alice.ID)
		h.events.Reset()

		got, err := h.employees.Update(ctx, bob.ID, service.UpdateEmployeeInput{EmployeeName: domain.Ptr("Robert")})

		require.NoError(t, err)
		assert.Equal(t, "Robert", got.EmployeeName)
		assert.Equal(t, "b@x.com", got.Email)
		assert.Equal(t, alice.ID, *got.ManagerID)
		assert.Equal(t, []string{messaging.EventEmployeeUpdated}, h.events.Types())
	})

	t.Run("null manager clears", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)
		bob := h.employee(t, "Bob", "b@x.com", &alice.ID)

		got, err := h.employees.Update(ctx, bob.ID, service.UpdateEmployeeInput{SetManager: true})

		require.NoError(t, err)
		assert.Nil(t, got.ManagerID)
	})

	t.Run("zero manager clears", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)
		bob := h.employee(t, "Bob", "b@x.com", &alice.ID)

		got, err := h.employees.Update(ctx, bob.ID, service.UpdateEmployeeInput{SetManager: true, ManagerID: domain.Ptr(int64(0))})

		require.NoError(t, err)
		assert.Nil(t, got.ManagerID)
	})

	t.Run("self manager is a conflict", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)

		_, err := h.employees.Update(ctx, alice.ID, service.UpdateEmployeeInput{SetManager: true, ManagerID: &alice.ID})

		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("cycle is a conflict", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)
		bob := h.employee(t, "Bob", "b@x.com", &alice.ID)
		carol := h.employee(t, "Carol", "c@x.com", &bob.ID)

		_, err := h.employees.Update(ctx, alice.ID, service.UpdateEmployeeInput{SetManager: true, ManagerID: &carol.ID})

		assert.ErrorIs(t, err, errors.ErrConflict)
		got, err := h.employees.Get(ctx, alice.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ManagerID)
	})

	t.Run("manager by name", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)
		bob := h.employee(t, "Bob", "b@x.com", nil)

		got, err := h.employees.Update(ctx, bob.ID, service.UpdateEmployeeInput{SetManager: true, ManagerName: domain.Ptr("alice")})

		require.NoError(t, err)
		assert.Equal(t, alice.ID, *got.ManagerID)
	})

	t.Run("manager id wins over name", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)
		carol := h.employee(t, "Carol", "c@x.com", nil)
		bob := h.employee(t, "Bob", "b@x.com", nil)

		got, err := h.employees.Update(ctx, bob.ID, service.UpdateEmployeeInput{
			SetManager:  true,
			ManagerID:   &carol.ID,
			ManagerName: domain.Ptr("alice"),
		})

		require.NoError(t, err)
		assert.Equal(t, carol.ID, *got.ManagerID)
		assert.NotEqual(t, alice.ID, *got.ManagerID)
	})

	t.Run("unchanged update publishes nothing", func(t *testing.T) {
		h := newHarness(t)
		alice := h.employee(t, "Alice", "a@x.com", nil)
		h.events.Reset()

		_, err := h.employees.Update(ctx, alice.ID, service.UpdateEmployeeInput{EmployeeName: domain.Ptr("Alice")})

		require.NoError(t, err)
		assert.Empty(t, h.events.Types())
	})

	t.Run("missing employee", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.employees.Update(ctx, 42, service.UpdateEmployeeInput{EmployeeName: domain.Ptr("X")})

		assert.True(t, errors.IsNotFound(err))
	})
}

func TestEmployeeService_DeleteNullsSubordinates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	alice := h.employee(t, "Alice", "a@x.com", nil)
	bob := h.employee(t, "Bob", "b@x.com", &alice.ID)

	_, subs, err := h.employees.Subordinates(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, bob.ID, subs[0].ID)

	require.NoError(t, h.employees.Delete(ctx, alice.ID))

	got, err := h.employees.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ManagerID)

	_, err = h.employees.Get(ctx, alice.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, h.events.Types(), messaging.EventEmployeeDeleted)
}

func TestEmployeeService_DeleteMissing(t *testing.T) {
	h := newHarness(t)

	err := h.employees.Delete(context.Background(), 7)

	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, h.events.Types())
}

func TestEmployeeService_Hierarchy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	ceo := h.employee(t, "Ceo", "ceo@x.com", nil)
	vp := h.employee(t, "Vp", "vp@x.com", &ceo.ID)
	dev := h.employee(t, "Dev", "dev@x.com", &vp.ID)
	h.employee(t, "Ops", "ops@x.com", &ceo.ID)

	chain, err := h.employees.ManagerChain(ctx, dev.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, vp.ID, chain[0].ID)
	assert.Equal(t, ceo.ID, chain[1].ID)

	emp, chain, err := h.employees.ProfileWithHierarchy(ctx, "DEV@x.com")
	require.NoError(t, err)
	assert.Equal(t, dev.ID, emp.ID)
	assert.Len(t, chain, 2)

	roots, err := h.employees.WithoutManager(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, ceo.ID, roots[0].ID)

	tree, err := h.employees.Tree(ctx, ceo.ID)
	require.NoError(t, err)
	require.Len(t, tree.Subordinates, 2)
	assert.Equal(t, vp.ID, tree.Subordinates[0].ID)
	require.Len(t, tree.Subordinates[0].Subordinates, 1)
	assert.Equal(t, dev.ID, tree.Subordinates[0].Subordinates[0].ID)

	_, _, err = h.employees.Subordinates(ctx, 999)
	assert.True(t, errors.IsNotFound(err))
}

func TestEmployeeService_HierarchyReadsRunInOneTransaction(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	ceo := h.employee(t, "Ceo", "ceo@x.com", nil)
	dev := h.employee(t, "Dev", "dev@x.com", &ceo.ID)

	tx := &countingTx{Transactor: h.store}
	employees := service.NewEmployeeService(tx, h.store.Employees(), events.NewPublisher(messaging.NopPublisher{}, logger.Nop()), logger.Nop())

	_, err := employees.ManagerChain(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.Calls())

	_, _, err = employees.ProfileWithHierarchy(ctx, dev.Email)
	require.NoError(t, err)
	assert.Equal(t, 2, tx.Calls())

	_, err = employees.Tree(ctx, ceo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, tx.Calls())
}

func TestEmployeeService_ManagerChainSurvivesCorruptCycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.employee(t, "A", "a@x.com", nil)
	b := h.employee(t, "B", "b@x.com", &a.ID)
	h.store.Employees().SetManager(a.ID, &b.ID)

	chain, err := h.employees.ManagerChain(ctx, a.ID)

	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, b.ID, chain[0].ID)
}

func TestEmployeeService_Lookups(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first := h.employee(t, "Sam", "sam1@x.com", nil)
	h.employee(t, "sam", "sam2@x.com", nil)

	got, err := h.employees.FindByName(ctx, "SAM")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = h.employees.FindByName(ctx, "nobody")
	assert.True(t, errors.IsNotFound(err))

	_, err = h.employees.GetByEmail(ctx, "")
	assert.ErrorIs(t, err, errors.ErrValidation)

	all, err := h.employees.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
