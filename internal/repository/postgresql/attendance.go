package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type attendanceRepository struct {
	db database.Querier
}

func NewAttendanceRepository(db database.Querier) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	id, employee_id, date,
	check_in_time, check_in_method, check_in_location,
	check_out_time, check_out_method, check_out_location,
	break_periods, total_hours, overtime_hours,
	status, marked_absent, absence_reason,
	created_at, updated_at`

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	if newAttendance.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		newAttendance.ID = id.String()
	}

	cols, err := toAttendanceColumns(newAttendance)
	if err != nil {
		return attendance.Attendance{}, err
	}

	query := `
		INSERT INTO attendances (
			id, employee_id, date,
			check_in_time, check_in_method, check_in_location,
			check_out_time, check_out_method, check_out_location,
			break_periods, total_hours, overtime_hours,
			status, marked_absent, absence_reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.EmployeeID,
		newAttendance.Date,
		cols.checkInTime,
		cols.checkInMethod,
		cols.checkInLocation,
		cols.checkOutTime,
		cols.checkOutMethod,
		cols.checkOutLocation,
		cols.breakPeriods,
		newAttendance.TotalHours,
		newAttendance.OvertimeHours,
		string(newAttendance.Status),
		newAttendance.MarkedAbsent,
		newAttendance.AbsenceReason,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, attendanceDayConstraint) {
			return attendance.Attendance{}, attendance.ErrAttendanceExists
		}
		if isForeignKeyViolation(err) {
			return attendance.Attendance{}, employee.ErrEmployeeNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	return r.getByEmployeeAndDate(ctx, employeeID, date, "")
}

// GetByEmployeeAndDateForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	return r.getByEmployeeAndDate(ctx, employeeID, date, " FOR UPDATE")
}

func (r *attendanceRepository) getByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, lock string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND date = $2` + lock

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return att, nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, r.db)

	cols, err := toAttendanceColumns(att)
	if err != nil {
		return err
	}

	query := `
		UPDATE attendances SET
			check_in_time = $2,
			check_in_method = $3,
			check_in_location = $4,
			check_out_time = $5,
			check_out_method = $6,
			check_out_location = $7,
			break_periods = $8,
			total_hours = $9,
			overtime_hours = $10,
			status = $11,
			marked_absent = $12,
			absence_reason = $13,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		cols.checkInTime,
		cols.checkInMethod,
		cols.checkInLocation,
		cols.checkOutTime,
		cols.checkOutMethod,
		cols.checkOutLocation,
		cols.breakPeriods,
		att.TotalHours,
		att.OvertimeHours,
		string(att.Status),
		att.MarkedAbsent,
		att.AbsenceReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return records, nil
}

type attendanceColumnValues struct {
	checkInTime      *time.Time
	checkInMethod    *string
	checkInLocation  []byte
	checkOutTime     *time.Time
	checkOutMethod   *string
	checkOutLocation []byte
	breakPeriods     []byte
}

func toAttendanceColumns(att attendance.Attendance) (attendanceColumnValues, error) {
	var cols attendanceColumnValues
	var err error

	if att.CheckIn != nil {
		cols.checkInTime, cols.checkInMethod = punchColumns(*att.CheckIn)
		if cols.checkInLocation, err = marshalLocation(att.CheckIn.Location); err != nil {
			return cols, err
		}
	}
	if att.CheckOut != nil {
		cols.checkOutTime, cols.checkOutMethod = punchColumns(*att.CheckOut)
		if cols.checkOutLocation, err = marshalLocation(att.CheckOut.Location); err != nil {
			return cols, err
		}
	}

	breaks := att.BreakPeriods
	if breaks == nil {
		breaks = []attendance.BreakPeriod{}
	}
	if cols.breakPeriods, err = json.Marshal(breaks); err != nil {
		return cols, fmt.Errorf("failed to marshal break periods: %w", err)
	}
	return cols, nil
}

func punchColumns(p attendance.Punch) (*time.Time, *string) {
	t := p.Time
	m := string(p.Method)
	return &t, &m
}

func marshalLocation(loc *attendance.Location) ([]byte, error) {
	if loc == nil {
		return nil, nil
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}
	return b, nil
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		att              attendance.Attendance
		status           string
		checkInTime      *time.Time
		checkInMethod    *string
		checkInLocation  []byte
		checkOutTime     *time.Time
		checkOutMethod   *string
		checkOutLocation []byte
		breakPeriods     []byte
		totalHours       decimal.Decimal
		overtimeHours    decimal.Decimal
	)

	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.Date,
		&checkInTime, &checkInMethod, &checkInLocation,
		&checkOutTime, &checkOutMethod, &checkOutLocation,
		&breakPeriods, &totalHours, &overtimeHours,
		&status, &att.MarkedAbsent, &att.AbsenceReason,
		&att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	if att.CheckIn, err = toPunch(checkInTime, checkInMethod, checkInLocation); err != nil {
		return attendance.Attendance{}, err
	}
	if att.CheckOut, err = toPunch(checkOutTime, checkOutMethod, checkOutLocation); err != nil {
		return attendance.Attendance{}, err
	}

	att.BreakPeriods = []attendance.BreakPeriod{}
	if len(breakPeriods) > 0 {
		if err := json.Unmarshal(breakPeriods, &att.BreakPeriods); err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to unmarshal break periods: %w", err)
		}
	}

	att.TotalHours = totalHours
	att.OvertimeHours = overtimeHours
	att.Status = attendance.Status(status)
	return att, nil
}

func toPunch(t *time.Time, method *string, location []byte) (*attendance.Punch, error) {
	if t == nil {
		return nil, nil
	}
	p := &attendance.Punch{Time: *t}
	if method != nil {
		p.Method = attendance.Method(*method)
	}
	if len(location) > 0 {
		var loc attendance.Location
		if err := json.Unmarshal(location, &loc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal location: %w", err)
		}
		p.Location = &loc
	}
	return p, nil
}
