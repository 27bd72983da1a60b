package postgresql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func checkedInDay() attendance.Attendance {
	in := time.Date(2025, 3, 10, 1, 15, 0, 0, time.UTC)
	return attendance.Attendance{
		ID:         "0195d0a4-7c1e-7000-8000-000000000001",
		EmployeeID: "emp-1",
		Date:       testDay,
		CheckIn: &attendance.Punch{
			Time:     in,
			Method:   attendance.MethodMobile,
			Location: &attendance.Location{Latitude: -6.2, Longitude: 106.8},
		},
		BreakPeriods:  []attendance.BreakPeriod{},
		TotalHours:    decimal.Zero,
		OvertimeHours: decimal.Zero,
		Status:        attendance.StatusPresent,
	}
}

func TestScanAttendance_FullDay(t *testing.T) {
	in := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	out := time.Date(2025, 3, 10, 10, 20, 0, 0, time.UTC)
	inMethod, outMethod := "mobile", "biometric"
	created := time.Date(2025, 3, 10, 1, 0, 1, 0, time.UTC)

	row := stubRow{values: []interface{}{
		"att-1", "emp-1", testDay,
		&in, &inMethod, []byte(`{"lat":-6.2,"lon":106.8,"address":"HQ"}`),
		&out, &outMethod, nil,
		[]byte(`[{"start":"2025-03-10T05:00:00Z","end":"2025-03-10T05:30:00Z","duration_minutes":30}]`),
		decimal.RequireFromString("8.83"), decimal.RequireFromString("0.83"),
		"present", false, nil,
		created, created,
	}}

	att, err := scanAttendance(row)
	require.NoError(t, err)

	assert.Equal(t, "att-1", att.ID)
	require.NotNil(t, att.CheckIn)
	assert.True(t, att.CheckIn.Time.Equal(in))
	assert.Equal(t, attendance.MethodMobile, att.CheckIn.Method)
	require.NotNil(t, att.CheckIn.Location)
	assert.Equal(t, "HQ", *att.CheckIn.Location.Address)

	require.NotNil(t, att.CheckOut)
	assert.Equal(t, attendance.MethodBiometric, att.CheckOut.Method)
	assert.Nil(t, att.CheckOut.Location)

	require.Len(t, att.BreakPeriods, 1)
	assert.False(t, att.BreakPeriods[0].IsOpen())
	assert.Equal(t, 30, *att.BreakPeriods[0].DurationMinutes)

	assert.Equal(t, "8.83", att.TotalHours.StringFixed(2))
	assert.Equal(t, attendance.StatusPresent, att.Status)
}

func TestScanAttendance_AbsenceRow(t *testing.T) {
	reason := "sick"
	row := stubRow{values: []interface{}{
		"att-2", "emp-1", testDay,
		nil, nil, nil,
		nil, nil, nil,
		[]byte(`[]`), decimal.Zero, decimal.Zero,
		"absent", true, &reason,
		testDay, testDay,
	}}

	att, err := scanAttendance(row)
	require.NoError(t, err)

	assert.Nil(t, att.CheckIn)
	assert.Nil(t, att.CheckOut)
	assert.NotNil(t, att.BreakPeriods)
	assert.Empty(t, att.BreakPeriods)
	assert.True(t, att.MarkedAbsent)
	assert.Equal(t, "sick", *att.AbsenceReason)
	assert.Equal(t, attendance.StatusAbsent, att.Status)
}

func TestScanAttendance_BadBreakJSON(t *testing.T) {
	row := stubRow{values: []interface{}{
		"att-3", "emp-1", testDay,
		nil, nil, nil,
		nil, nil, nil,
		[]byte(`{not json`), decimal.Zero, decimal.Zero,
		"absent", false, nil,
		testDay, testDay,
	}}

	_, err := scanAttendance(row)
	assert.Error(t, err)
}

func TestToAttendanceColumns(t *testing.T) {
	att := checkedInDay()
	att.BreakPeriods = nil

	cols, err := toAttendanceColumns(att)
	require.NoError(t, err)

	require.NotNil(t, cols.checkInTime)
	assert.True(t, cols.checkInTime.Equal(att.CheckIn.Time))
	assert.Equal(t, "mobile", *cols.checkInMethod)
	assert.JSONEq(t, `{"lat":-6.2,"lon":106.8}`, string(cols.checkInLocation))
	assert.Nil(t, cols.checkOutTime)
	assert.Nil(t, cols.checkOutLocation)
	assert.Equal(t, "[]", string(cols.breakPeriods))
}

func TestAttendanceRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)
	now := time.Date(2025, 3, 10, 1, 15, 1, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO attendances").
		WithArgs(anyArgs(15)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	created, err := repo.Create(context.Background(), checkedInDay())
	require.NoError(t, err)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_Create_GeneratesID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO attendances").
		WithArgs(anyArgs(15)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	day := checkedInDay()
	day.ID = ""
	created, err := repo.Create(context.Background(), day)
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
}

func TestAttendanceRepository_Create_DuplicateDay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)

	mock.ExpectQuery("INSERT INTO attendances").
		WithArgs(anyArgs(15)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uk_attendance_employee_date"})

	_, err = repo.Create(context.Background(), checkedInDay())
	assert.ErrorIs(t, err, attendance.ErrAttendanceExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_Create_UnknownEmployee(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)

	mock.ExpectQuery("INSERT INTO attendances").
		WithArgs(anyArgs(15)...).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err = repo.Create(context.Background(), checkedInDay())
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAttendanceRepository_GetByEmployeeAndDate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)

	mock.ExpectQuery("FROM attendances").
		WithArgs("emp-1", testDay).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByEmployeeAndDate(context.Background(), "emp-1", testDay)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_GetForUpdate_LocksRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)

	mock.ExpectQuery("FOR UPDATE").
		WithArgs("emp-1", testDay).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByEmployeeAndDateForUpdate(context.Background(), "emp-1", testDay)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)

	mock.ExpectExec("UPDATE attendances SET").
		WithArgs(anyArgs(13)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), checkedInDay()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_Update_MissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttendanceRepository(mock)

	mock.ExpectExec("UPDATE attendances SET").
		WithArgs(anyArgs(13)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), checkedInDay())
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestAttendanceRepository_UsesTransactionFromContext(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tm := NewTransactionManager(mock)
	repo := NewAttendanceRepository(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("emp-1", testDay).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err = tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := repo.GetByEmployeeAndDateForUpdate(ctx, "emp-1", testDay)
		return err
	})

	assert.True(t, errors.Is(err, attendance.ErrAttendanceNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
