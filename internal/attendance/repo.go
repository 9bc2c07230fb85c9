package attendance

import (
	"context"
	"encoding/json"
	"time"

	"attendpay/internal/store"
)

// Statuses a day can be marked with.
const (
	StatusPresent = "present"
	StatusLeave   = "leave"
	StatusAbsent  = "absent"
)

// Record is one employee-day. EmployeeID is a soft reference: deleting
// the employee leaves the record behind. CheckIn is set only for
// present days; CheckOut only after an explicit check-out.
type Record struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employeeId"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	CheckIn    *string `json:"checkIn"`
	CheckOut   *string `json:"checkOut,omitempty"`
}

// Repository persists the attendance collection.
type Repository struct {
	kv store.Store
}

// NewRepository creates a repo over the given state store.
func NewRepository(kv store.Store) *Repository {
	return &Repository{kv: kv}
}

// EnsureSeed writes one present record for the seeded employee dated
// today, unless the collection already exists.
func (r *Repository) EnsureSeed(ctx context.Context) error {
	_, ok, err := r.kv.Get(ctx, store.KeyAttendance)
	if err != nil || ok {
		return err
	}
	checkIn := "09:00 AM"
	seed := []Record{{
		ID:         "att1",
		EmployeeID: "emp1",
		Date:       time.Now().Format("2006-01-02"),
		Status:     StatusPresent,
		CheckIn:    &checkIn,
	}}
	return r.Save(ctx, seed)
}

// Records returns the full collection in stored order.
func (r *Repository) Records(ctx context.Context) ([]Record, error) {
	raw, ok, err := r.kv.Get(ctx, store.KeyAttendance)
	if err != nil || !ok {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Save replaces the attendance collection.
func (r *Repository) Save(ctx context.Context, records []Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, store.KeyAttendance, raw)
}
