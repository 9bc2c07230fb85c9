package auth

import (
	"context"
	"encoding/json"

	"attendpay/internal/store"
)

// Roles a user can hold.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is an account that can sign in. Passwords are stored verbatim:
// this service keeps the persisted shape of the demo system it replaces,
// including its seeded credentials.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// DefaultUsers are seeded on first run.
var DefaultUsers = []User{
	{ID: "1", Name: "Admin User", Email: "admin@demo.com", Password: "admin123", Phone: "9876543210", Role: RoleAdmin},
	{ID: "2", Name: "Employee User", Email: "emp@demo.com", Password: "emp123", Phone: "9876543211", Role: RoleEmployee},
}

// Repository persists the user collection and the session mirror.
type Repository struct {
	kv store.Store
}

// NewRepository creates a repo over the given state store.
func NewRepository(kv store.Store) *Repository {
	return &Repository{kv: kv}
}

// EnsureSeed writes the default users unless the collection already exists.
func (r *Repository) EnsureSeed(ctx context.Context) error {
	_, ok, err := r.kv.Get(ctx, store.KeyUsers)
	if err != nil || ok {
		return err
	}
	return r.SaveUsers(ctx, DefaultUsers)
}

// Users returns the full user collection in stored order.
func (r *Repository) Users(ctx context.Context) ([]User, error) {
	raw, ok, err := r.kv.Get(ctx, store.KeyUsers)
	if err != nil || !ok {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUsers replaces the user collection.
func (r *Repository) SaveUsers(ctx context.Context, users []User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, store.KeyUsers, raw)
}

// CurrentUser returns the persisted session copy, or nil when signed out.
func (r *Repository) CurrentUser(ctx context.Context) (*User, error) {
	raw, ok, err := r.kv.Get(ctx, store.KeyCurrentUser)
	if err != nil || !ok {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetCurrentUser persists the session copy.
func (r *Repository) SetCurrentUser(ctx context.Context, u User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, store.KeyCurrentUser, raw)
}

// ClearCurrentUser removes the session copy. Absent is a no-op.
func (r *Repository) ClearCurrentUser(ctx context.Context) error {
	return r.kv.Delete(ctx, store.KeyCurrentUser)
}
