package directory

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"attendpay/internal/apperr"
)

// Service implements employee directory operations.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Input holds the employee form fields. Salary arrives as entered and is
// parsed here; anything that is not a number >= 0 is rejected.
type Input struct {
	Name       string
	Email      string
	Phone      string
	Department string
	Position   string
	Salary     string
	JoinDate   string
}

func (in Input) parse() (Employee, error) {
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Department == "" ||
		in.Position == "" || in.Salary == "" || in.JoinDate == "" {
		return Employee{}, apperr.Validation("all fields are required")
	}
	salary, err := strconv.ParseFloat(in.Salary, 64)
	if err != nil || salary < 0 {
		return Employee{}, apperr.Validation("salary must be a number >= 0")
	}
	return Employee{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Department: in.Department,
		Position:   in.Position,
		Salary:     salary,
		JoinDate:   in.JoinDate,
	}, nil
}

// Add appends a new employee with a fresh id.
func (s *Service) Add(ctx context.Context, in Input) (Employee, error) {
	emp, err := in.parse()
	if err != nil {
		return Employee{}, err
	}
	emp.ID = uuid.NewString()
	employees, err := s.repo.Employees(ctx)
	if err != nil {
		return Employee{}, err
	}
	if err := s.repo.Save(ctx, append(employees, emp)); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// Update replaces the fields of an existing employee in place.
func (s *Service) Update(ctx context.Context, id string, in Input) (Employee, error) {
	emp, err := in.parse()
	if err != nil {
		return Employee{}, err
	}
	employees, err := s.repo.Employees(ctx)
	if err != nil {
		return Employee{}, err
	}
	for i := range employees {
		if employees[i].ID == id {
			emp.ID = id
			employees[i] = emp
			if err := s.repo.Save(ctx, employees); err != nil {
				return Employee{}, err
			}
			return emp, nil
		}
	}
	return Employee{}, apperr.NotFound("employee not found")
}

// Delete removes an employee by id. An absent id is a no-op.
// Attendance rows referencing the employee are left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	employees, err := s.repo.Employees(ctx)
	if err != nil {
		return err
	}
	kept := employees[:0]
	for _, e := range employees {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(employees) {
		return nil
	}
	return s.repo.Save(ctx, kept)
}

// Get returns an employee by id, or nil when absent.
func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	employees, err := s.repo.Employees(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range employees {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

// Search matches term case-insensitively against name, email and
// department. An empty term returns the whole directory.
func (s *Service) Search(ctx context.Context, term string) ([]Employee, error) {
	employees, err := s.repo.Employees(ctx)
	if err != nil {
		return nil, err
	}
	if term == "" {
		return employees, nil
	}
	term = strings.ToLower(term)
	var matched []Employee
	for _, e := range employees {
		if strings.Contains(strings.ToLower(e.Name), term) ||
			strings.Contains(strings.ToLower(e.Email), term) ||
			strings.Contains(strings.ToLower(e.Department), term) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
