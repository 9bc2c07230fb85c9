package auth

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

func TestLoginSeededAdmin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.Login(ctx, "admin@demo.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, user.Role)

	// Session is the persisted copy of the logged-in user.
	current, err := repo.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}

func TestLoginFailures(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "", "admin123")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Login(ctx, "admin@demo.com", "wrong")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	_, err = svc.Login(ctx, "nobody@demo.com", "admin123")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	// Email matching is case-sensitive.
	_, err = svc.Login(ctx, "ADMIN@demo.com", "admin123")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	// Nothing was persisted on failure.
	current, err := repo.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	before, err := repo.Users(ctx)
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{
		Name: "Dup", Email: "admin@demo.com", Phone: "1", Password: "x", Role: RoleEmployee,
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	after, err := repo.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "collection must be unchanged on conflict")
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.c", Phone: "1", Password: "", Role: RoleEmployee})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.c", Phone: "1", Password: "p", Role: "manager"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterDoesNotLogin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name: "New", Email: "new@demo.com", Phone: "1", Password: "pw", Role: RoleEmployee,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	current, err := repo.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	// The new credentials work afterwards.
	logged, err := svc.Login(ctx, "new@demo.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestLogoutClearsSession(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "emp@demo.com", "emp123")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	current, err := repo.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	// Logout with no session is still fine.
	require.NoError(t, svc.Logout(ctx))
}

func TestSessionIsACopy(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	logged, err := svc.Login(ctx, "emp@demo.com", "emp123")
	require.NoError(t, err)

	// Edit the underlying user record after login.
	users, err := repo.Users(ctx)
	require.NoError(t, err)
	for i := range users {
		if users[i].ID == logged.ID {
			users[i].Name = "Renamed"
		}
	}
	require.NoError(t, repo.SaveUsers(ctx, users))

	session, err := svc.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "Employee User", session.Name, "session keeps the login-time copy")
}
