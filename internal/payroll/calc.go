package payroll

import (
	"fmt"
	"time"

	"attendpay/internal/attendance"
	"attendpay/internal/directory"
)

// StatusPending tags every computed row. Payroll is never persisted;
// it is recomputed on each view and stays pending.
const StatusPending = "pending"

// Statement is one employee's derived pay for a month.
type Statement struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	BasicSalary  float64 `json:"basicSalary"`
	Present      int     `json:"present"`
	Leave        int     `json:"leave"`
	Absent       int     `json:"absent"`
	PerDay       float64 `json:"perDaySalary"`
	Net          float64 `json:"netSalary"`
	Status       string  `json:"status"`
}

// DaysInMonth returns the number of calendar days in month/year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the inclusive first and last dates of the month as
// zero-padded YYYY-MM-DD strings, so the range filter can compare
// lexicographically.
func MonthRange(year, month int) (string, string) {
	days := DaysInMonth(year, month)
	return fmt.Sprintf("%04d-%02d-01", year, month),
		fmt.Sprintf("%04d-%02d-%02d", year, month, days)
}

// Compute derives one employee's statement for a month. Present and
// leave are counted from records in range; absent is derived as the
// remaining calendar days, so an unmarked day is an absent day. Leave
// days are unpaid: net pay is present days times the per-day rate.
func Compute(emp directory.Employee, records []attendance.Record, year, month int) Statement {
	days := DaysInMonth(year, month)
	start, end := MonthRange(year, month)

	present, leave := 0, 0
	for _, rec := range records {
		if rec.EmployeeID != emp.ID || rec.Date < start || rec.Date > end {
			continue
		}
		switch rec.Status {
		case attendance.StatusPresent:
			present++
		case attendance.StatusLeave:
			leave++
		}
	}

	perDay := emp.Salary / float64(days)
	return Statement{
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		BasicSalary:  emp.Salary,
		Present:      present,
		Leave:        leave,
		Absent:       days - present - leave,
		PerDay:       perDay,
		Net:          float64(present) * perDay,
		Status:       StatusPending,
	}
}

// ComputeAll derives a statement for every employee.
func ComputeAll(employees []directory.Employee, records []attendance.Record, year, month int) []Statement {
	statements := make([]Statement, 0, len(employees))
	for _, emp := range employees {
		statements = append(statements, Compute(emp, records, year, month))
	}
	return statements
}
