package attendance

import (
	"context"
	"time"
)

// AttendanceRepository persists ledger entries, one row per (employee, date).
type AttendanceRepository interface {
	// Create inserts a new day. A second row for the same (employee, date)
	// fails with ErrAttendanceExists.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByEmployeeAndDate returns ErrAttendanceNotFound when the day has no row.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Attendance, error)

	// GetByEmployeeAndDateForUpdate locks the row for the surrounding transaction.
	GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (Attendance, error)

	Update(ctx context.Context, attendance Attendance) error

	// ListByEmployeeAndRange returns days in [from, to] ordered by date.
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)
}
