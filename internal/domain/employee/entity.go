package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the read-only view of an employee record that attendance and
// payroll depend on. Records are owned and maintained elsewhere.
type Employee struct {
	ID               string
	UserID           *string
	EmployeeCode     string
	FullName         string
	HireDate         time.Time
	ResignationDate  *time.Time
	EmploymentStatus EmploymentStatus
	BaseSalary       *decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

// EmployedDuring reports whether the employment overlaps [start, end].
func (e Employee) EmployedDuring(start, end time.Time) bool {
	if civilDate(e.HireDate).After(civilDate(end)) {
		return false
	}
	if e.ResignationDate != nil && civilDate(*e.ResignationDate).Before(civilDate(start)) {
		return false
	}
	return true
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
