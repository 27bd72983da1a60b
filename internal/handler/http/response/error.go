package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Out-of-order ledger events carry their own client-facing message
	if attendance.IsSequenceError(err) {
		Fail(w, http.StatusConflict, CodeAttendanceSequence, err.Error(), nil)
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrManagerAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrEmployeeIDRequired):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		Fail(w, http.StatusNotFound, CodeAttendanceNotFound, "Attendance record not found", nil)
	case errors.Is(err, attendance.ErrAttendanceExists):
		Fail(w, http.StatusConflict, CodeAttendanceExists, "Attendance record already exists for this date", nil)
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		Fail(w, http.StatusNotFound, CodeEmployeeNotFound, "Employee not found", nil)
	case errors.Is(err, employee.ErrEmployeeNotActive):
		Fail(w, http.StatusForbidden, CodeEmployeeNotActive, "Employee is not active", nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayslipNotFound):
		Fail(w, http.StatusNotFound, CodePayslipNotFound, "Payslip not found", nil)
	case errors.Is(err, payroll.ErrDuplicatePayrollPeriod):
		Fail(w, http.StatusConflict, CodeDuplicatePayrollPeriod, "Payslip already exists for this employee and period", nil)
	case errors.Is(err, payroll.ErrInvalidStatusTransition):
		Fail(w, http.StatusConflict, CodeInvalidStatusTransition, "Invalid payslip status transition", nil)
	case errors.Is(err, payroll.ErrBatchCalculationForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, payroll.ErrEmployeeHasNoBaseSalary),
		errors.Is(err, payroll.ErrEmployeeNotEmployed):
		Fail(w, http.StatusBadRequest, CodePayrollPrecondition, err.Error(), nil)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", slog.Any("error", err))
		InternalServerError(w, "An unexpected error occurred")
	}
}
