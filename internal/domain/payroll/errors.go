package payroll

import "errors"

var (
	ErrPayslipNotFound           = errors.New("payslip not found")
	ErrDuplicatePayrollPeriod    = errors.New("payslip already exists for this employee and period")
	ErrInvalidStatusTransition   = errors.New("invalid payslip status transition")
	ErrInvalidPeriod             = errors.New("invalid payroll period")
	ErrEmployeeHasNoBaseSalary   = errors.New("employee has no base salary configured")
	ErrEmployeeNotEmployed       = errors.New("employee was not employed during this period")
	ErrBatchCalculationForbidden = errors.New("only owners and managers can run batch payroll")
)

// IsAlreadyExists reports whether err means the payslip was already
// calculated, which batch callers treat as a skip rather than a failure.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrDuplicatePayrollPeriod)
}
