package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendpay/internal/apperr"
	"attendpay/internal/store"
)

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(store.NewMemory())
	require.NoError(t, repo.EnsureSeed(context.Background()))
	return NewService(repo), repo
}

func validInput() Input {
	return Input{
		Name: "Priya", Email: "priya@company.com", Phone: "9876543214",
		Department: "HR", Position: "Manager", Salary: "30000", JoinDate: "2024-02-01",
	}
}

func TestAddEmployee(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	emp, err := svc.Add(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, emp.ID)
	assert.Equal(t, 30000.0, emp.Salary)

	employees, err := repo.Employees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 3)
	assert.Equal(t, emp, employees[2], "appended at the end")
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.Department = ""
	_, err := svc.Add(ctx, in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = validInput()
	in.Salary = "not-a-number"
	_, err = svc.Add(ctx, in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = validInput()
	in.Salary = "-5"
	_, err = svc.Add(ctx, in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "emp1"))
	employees, err := repo.Employees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1)

	// Deleting a missing id changes nothing and returns no error.
	require.NoError(t, svc.Delete(ctx, "no-such-id"))
	after, err := repo.Employees(ctx)
	require.NoError(t, err)
	assert.Equal(t, employees, after)
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Empty term returns the whole directory in stored order.
	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "emp1", all[0].ID)

	// Case-insensitive match on name.
	byName, err := svc.Search(ctx, "KUMA")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Kumar", byName[0].Name)

	// Match on department picks up a different employee.
	byDept, err := svc.Search(ctx, "sales")
	require.NoError(t, err)
	require.Len(t, byDept, 1)
	assert.Equal(t, "Rajesh", byDept[0].Name)

	// OR semantics: "company" hits every email.
	byEmail, err := svc.Search(ctx, "company")
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	none, err := svc.Search(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateInPlace(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.Name = "Kumar S"
	in.Salary = "27500"
	emp, err := svc.Update(ctx, "emp1", in)
	require.NoError(t, err)
	assert.Equal(t, "emp1", emp.ID, "id is preserved")
	assert.Equal(t, 27500.0, emp.Salary)

	employees, err := repo.Employees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "Kumar S", employees[0].Name, "updated in place, order kept")

	_, err = svc.Update(ctx, "no-such-id", validInput())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
