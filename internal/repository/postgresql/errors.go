package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"

	attendanceDayConstraint = "uk_attendance_employee_date"
	payslipPeriodConstraint = "uk_payslip_employee_period"
)

func pgErrorCode(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", "", false
	}
	return pgErr.Code, pgErr.ConstraintName, true
}

// isUniqueViolation matches a unique violation on constraint, or on any
// constraint when constraint is empty.
func isUniqueViolation(err error, constraint string) bool {
	code, name, ok := pgErrorCode(err)
	if !ok || code != uniqueViolationCode {
		return false
	}
	return constraint == "" || name == constraint
}

func isForeignKeyViolation(err error) bool {
	code, _, ok := pgErrorCode(err)
	return ok && code == foreignKeyViolationCode
}
