package directory

import (
	"context"
	"encoding/json"

	"attendpay/internal/store"
)

// Employee is a directory record. Salary is the monthly base.
// Field names match the persisted shape of the original data.
type Employee struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	Salary     float64 `json:"salary"`
	JoinDate   string  `json:"joinDate"`
}

// DefaultEmployees are seeded on first run. Their ids line up with the
// seeded employee user by convention only; nothing enforces the link.
var DefaultEmployees = []Employee{
	{ID: "emp1", Name: "Kumar", Email: "kumar@company.com", Phone: "9876543212", Department: "IT", Position: "Developer", Salary: 25000, JoinDate: "2024-01-01"},
	{ID: "emp2", Name: "Rajesh", Email: "rajesh@company.com", Phone: "9876543213", Department: "Sales", Position: "Executive", Salary: 20000, JoinDate: "2024-01-15"},
}

// Repository persists the employee collection.
type Repository struct {
	kv store.Store
}

// NewRepository creates a repo over the given state store.
func NewRepository(kv store.Store) *Repository {
	return &Repository{kv: kv}
}

// EnsureSeed writes the default employees unless the collection already exists.
func (r *Repository) EnsureSeed(ctx context.Context) error {
	_, ok, err := r.kv.Get(ctx, store.KeyEmployees)
	if err != nil || ok {
		return err
	}
	return r.Save(ctx, DefaultEmployees)
}

// Employees returns the full collection in stored order.
func (r *Repository) Employees(ctx context.Context) ([]Employee, error) {
	raw, ok, err := r.kv.Get(ctx, store.KeyEmployees)
	if err != nil || !ok {
		return nil, err
	}
	var employees []Employee
	if err := json.Unmarshal(raw, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// Save replaces the employee collection.
func (r *Repository) Save(ctx context.Context, employees []Employee) error {
	raw, err := json.Marshal(employees)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, store.KeyEmployees, raw)
}
