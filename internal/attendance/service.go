package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"attendpay/internal/apperr"
	"attendpay/internal/directory"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "03:04 PM"
)

// Service coordinates attendance marking and day summaries.
type Service struct {
	repo *Repository
	dir  *directory.Repository
	now  func() time.Time
}

// NewService creates a service backed by the attendance and directory repos.
func NewService(repo *Repository, dir *directory.Repository) *Service {
	return &Service{repo: repo, dir: dir, now: time.Now}
}

// Mark records a status for (employeeID, date). Date defaults to today
// and must be a zero-padded YYYY-MM-DD otherwise. Re-marking the same
// day replaces the record in place, keeping its id; the check-in time is
// stamped only for present and the check-out is cleared either way.
func (s *Service) Mark(ctx context.Context, employeeID, date, status string) (Record, error) {
	if employeeID == "" {
		return Record{}, apperr.Validation("employee id required")
	}
	switch status {
	case StatusPresent, StatusLeave, StatusAbsent:
	default:
		return Record{}, apperr.Validation("status must be present, leave or absent")
	}
	if date == "" {
		date = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return Record{}, apperr.Validation("date must be YYYY-MM-DD")
	}

	var checkIn *string
	if status == StatusPresent {
		t := s.now().Format(timeLayout)
		checkIn = &t
	}

	records, err := s.repo.Records(ctx)
	if err != nil {
		return Record{}, err
	}
	for i := range records {
		if records[i].EmployeeID == employeeID && records[i].Date == date {
			records[i].Status = status
			records[i].CheckIn = checkIn
			records[i].CheckOut = nil
			if err := s.repo.Save(ctx, records); err != nil {
				return Record{}, err
			}
			return records[i], nil
		}
	}
	rec := Record{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		CheckIn:    checkIn,
	}
	if err := s.repo.Save(ctx, append(records, rec)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// CheckOut stamps the out time on today's record. The day must already
// be marked present.
func (s *Service) CheckOut(ctx context.Context, employeeID string) (Record, error) {
	if employeeID == "" {
		return Record{}, apperr.Validation("employee id required")
	}
	today := s.now().Format(dateLayout)
	records, err := s.repo.Records(ctx)
	if err != nil {
		return Record{}, err
	}
	for i := range records {
		if records[i].EmployeeID == employeeID && records[i].Date == today {
			if records[i].Status != StatusPresent {
				return Record{}, apperr.Validation("only a present day can be checked out")
			}
			t := s.now().Format(timeLayout)
			records[i].CheckOut = &t
			if err := s.repo.Save(ctx, records); err != nil {
				return Record{}, err
			}
			return records[i], nil
		}
	}
	return Record{}, apperr.Validation("attendance not marked today")
}

// HistoryFor returns an employee's records, newest date first.
func (s *Service) HistoryFor(ctx context.Context, employeeID string) ([]Record, error) {
	records, err := s.repo.Records(ctx)
	if err != nil {
		return nil, err
	}
	var own []Record
	for _, rec := range records {
		if rec.EmployeeID == employeeID {
			own = append(own, rec)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].Date > own[j].Date })
	return own, nil
}

// TodayStatus returns today's record for the employee, or nil when unmarked.
func (s *Service) TodayStatus(ctx context.Context, employeeID string) (*Record, error) {
	today := s.now().Format(dateLayout)
	records, err := s.repo.Records(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.EmployeeID == employeeID && rec.Date == today {
			return &rec, nil
		}
	}
	return nil, nil
}

// OverviewRow is one employee's standing for a day. Unmarked employees
// show as absent with no record id.
type OverviewRow struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	Status       string  `json:"status"`
	CheckIn      *string `json:"checkIn"`
	CheckOut     *string `json:"checkOut"`
}

// Overview is the admin day view with dashboard tallies. The absent
// tally is employees minus marked records, so an explicit absent mark
// does not count toward it.
type Overview struct {
	Date    string        `json:"date"`
	Rows    []OverviewRow `json:"rows"`
	Present int           `json:"present"`
	Leave   int           `json:"leave"`
	Absent  int           `json:"absent"`
}

// DayOverview builds one row per directory employee for the given date,
// which defaults to today.
func (s *Service) DayOverview(ctx context.Context, date string) (Overview, error) {
	if date == "" {
		date = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return Overview{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	employees, err := s.dir.Employees(ctx)
	if err != nil {
		return Overview{}, err
	}
	records, err := s.repo.Records(ctx)
	if err != nil {
		return Overview{}, err
	}

	byEmployee := make(map[string]Record)
	marked := 0
	ov := Overview{Date: date}
	for _, rec := range records {
		if rec.Date != date {
			continue
		}
		byEmployee[rec.EmployeeID] = rec
		marked++
		switch rec.Status {
		case StatusPresent:
			ov.Present++
		case StatusLeave:
			ov.Leave++
		}
	}
	ov.Absent = len(employees) - marked
	if ov.Absent < 0 {
		ov.Absent = 0
	}

	for _, emp := range employees {
		row := OverviewRow{EmployeeID: emp.ID, EmployeeName: emp.Name, Status: StatusAbsent}
		if rec, ok := byEmployee[emp.ID]; ok {
			row.Status = rec.Status
			row.CheckIn = rec.CheckIn
			row.CheckOut = rec.CheckOut
		}
		ov.Rows = append(ov.Rows, row)
	}
	return ov, nil
}
