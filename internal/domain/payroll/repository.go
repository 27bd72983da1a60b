package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
)

// PayslipRepository defines data access methods for payslips.
type PayslipRepository interface {
	// Create fails with ErrDuplicatePayrollPeriod when a payslip already
	// exists for the same employee and period.
	Create(ctx context.Context, payslip Payslip) (Payslip, error)
	GetByID(ctx context.Context, id string) (Payslip, error)
	ExistsForPeriod(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	List(ctx context.Context, filter PayslipFilter) ([]Payslip, int64, error)

	// UpdateStatus moves a payslip from one status to another. It returns
	// ErrInvalidStatusTransition if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to PayslipStatus, paymentDate *time.Time) (Payslip, error)

	GetPeriodSummary(ctx context.Context, start, end time.Time) (PeriodSummary, error)
}

// AttendanceReader is the read-only view of the ledger the calculator needs.
type AttendanceReader interface {
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error)
}
