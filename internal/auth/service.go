package auth

import (
	"context"

	"github.com/google/uuid"

	"attendpay/internal/apperr"
)

// Service implements registration, login and the persisted session.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput is the full set of required registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

// Register appends a new user. It does not sign the user in.
// Email uniqueness is a case-sensitive exact match.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" || in.Role == "" {
		return User{}, apperr.Validation("all fields are required")
	}
	if in.Role != RoleAdmin && in.Role != RoleEmployee {
		return User{}, apperr.Validation("role must be admin or employee")
	}
	users, err := s.repo.Users(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Email == in.Email {
			return User{}, apperr.Conflict("email already exists")
		}
	}
	user := User{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
		Role:     in.Role,
	}
	if err := s.repo.SaveUsers(ctx, append(users, user)); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login matches email and password exactly and persists the session copy.
// The failure message never distinguishes unknown email from wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, apperr.Validation("email and password required")
	}
	users, err := s.repo.Users(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Email == email && u.Password == password {
			if err := s.repo.SetCurrentUser(ctx, u); err != nil {
				return User{}, err
			}
			return u, nil
		}
	}
	return User{}, apperr.Auth("invalid email or password")
}

// Logout clears the persisted session unconditionally.
func (s *Service) Logout(ctx context.Context) error {
	return s.repo.ClearCurrentUser(ctx)
}

// Session returns the persisted session copy from a previous login.
// The copy is what was stored at login time; later edits to the user
// collection are not reflected in it.
func (s *Service) Session(ctx context.Context) (*User, error) {
	return s.repo.CurrentUser(ctx)
}
