package payroll

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX renders a batch run as a spreadsheet with one header row
// and one row per statement.
func ExportXLSX(statements []Statement, year, month int) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Payroll %04d-%02d", year, month)
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{"Employee", "Basic Salary", "Present", "Leave", "Absent", "Per Day", "Net Salary", "Status"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, st := range statements {
		values := []any{st.EmployeeName, st.BasicSalary, st.Present, st.Leave, st.Absent, st.PerDay, st.Net, st.Status}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
