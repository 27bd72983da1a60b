package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/validator"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	policy attendance.Policy
	clock  clock.Clock
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.AttendanceResponse{}, employee.ErrEmployeeNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive() {
		return attendance.AttendanceResponse{}, employee.ErrEmployeeNotActive
	}

	now := a.clock.Now()
	day := a.policy.DayOf(now)
	punch := attendance.Punch{
		Time:     now,
		Method:   attendance.Method(req.Method),
		Location: req.Location,
	}

	var result attendance.Attendance
	err = a.tx.WithTransaction(ctx, func(ctx context.Context) error {
		record, err := a.AttendanceRepository.GetByEmployeeAndDateForUpdate(ctx, req.EmployeeID, day)
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			record = attendance.NewDay(req.EmployeeID, day)
			if err := record.ApplyCheckIn(punch, a.policy); err != nil {
				return err
			}

			created, err := a.AttendanceRepository.Create(ctx, record)
			if err != nil {
				// Lost a race with a concurrent first check-in for the same day.
				if errors.Is(err, attendance.ErrAttendanceExists) {
					return attendance.ErrAlreadyCheckedIn
				}
				return fmt.Errorf("failed to create attendance: %w", err)
			}
			result = created
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load attendance: %w", err)
		}

		record.Date = a.policy.NormalizeDate(record.Date)
		if err := record.ApplyCheckIn(punch, a.policy); err != nil {
			return err
		}
		if err := a.AttendanceRepository.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		record.UpdatedAt = now
		result = record
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.toResponse(result), nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.mutateToday(ctx, req.EmployeeID, attendance.ErrNoCheckInRecord, func(record *attendance.Attendance, now time.Time) error {
		return record.ApplyCheckOut(attendance.Punch{
			Time:     now,
			Method:   attendance.Method(req.Method),
			Location: req.Location,
		}, a.policy)
	})
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.BreakRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.mutateToday(ctx, req.EmployeeID, attendance.ErrNoCheckInRecord, func(record *attendance.Attendance, now time.Time) error {
		return record.ApplyStartBreak(now)
	})
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context, req attendance.BreakRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.mutateToday(ctx, req.EmployeeID, attendance.ErrNoActiveBreak, func(record *attendance.Attendance, now time.Time) error {
		return record.ApplyEndBreak(now)
	})
}

// mutateToday locks today's record, applies fn and writes the result back as
// one row update. missing is returned when the day has no record yet.
func (a *AttendanceServiceImpl) mutateToday(
	ctx context.Context,
	employeeID string,
	missing error,
	fn func(record *attendance.Attendance, now time.Time) error,
) (attendance.AttendanceResponse, error) {
	now := a.clock.Now()
	day := a.policy.DayOf(now)

	var result attendance.Attendance
	err := a.tx.WithTransaction(ctx, func(ctx context.Context) error {
		record, err := a.AttendanceRepository.GetByEmployeeAndDateForUpdate(ctx, employeeID, day)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return missing
			}
			return fmt.Errorf("failed to load attendance: %w", err)
		}

		record.Date = a.policy.NormalizeDate(record.Date)
		if err := fn(&record, now); err != nil {
			return err
		}

		if err := a.AttendanceRepository.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		record.UpdatedAt = now
		result = record
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.toResponse(result), nil
}

// MarkAbsent implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	day := a.policy.NormalizeDate(req.ParsedDate())
	if day.After(a.policy.DayOf(a.clock.Now())) {
		return attendance.AttendanceResponse{}, validator.ValidationErrors{{
			Field:   "date",
			Message: "date must not be in the future",
		}}
	}

	if _, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.AttendanceResponse{}, employee.ErrEmployeeNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	created, err := a.AttendanceRepository.Create(ctx, attendance.NewAbsence(req.EmployeeID, day, req.Reason))
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceExists) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceExists
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to mark absence: %w", err)
	}

	return a.toResponse(created), nil
}

// GetDay implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetDay(ctx context.Context, employeeID string, date string) (attendance.AttendanceResponse, error) {
	req := attendance.DayRequest{EmployeeID: employeeID, Date: date}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, a.policy.NormalizeDate(req.ParsedDate()))
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return a.toResponse(record), nil
}

// ListRange implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRange(ctx context.Context, filter attendance.DateRangeFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	from, to := filter.Bounds()

	records, err := a.AttendanceRepository.ListByEmployeeAndRange(ctx, filter.EmployeeID, a.policy.NormalizeDate(from), a.policy.NormalizeDate(to))
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	response := attendance.ListAttendanceResponse{
		EmployeeID: filter.EmployeeID,
		From:       from.Format(dateLayout),
		To:         to.Format(dateLayout),
		Summary:    summarize(records),
		Records:    make([]attendance.AttendanceResponse, 0, len(records)),
	}
	for _, record := range records {
		response.Records = append(response.Records, a.toResponse(record))
	}

	return response, nil
}

// GetTodayStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetTodayStatus(ctx context.Context, employeeID string) (attendance.TodayStatusResponse, error) {
	if err := attendance.ValidateEmployeeID(employeeID); err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	day := a.policy.DayOf(a.clock.Now())
	status := attendance.TodayStatusResponse{
		Date:       day.Format(dateLayout),
		CanCheckIn: true,
	}

	record, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return status, nil
		}
		return attendance.TodayStatusResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	open := record.HasCheckedIn() && !record.HasCheckedOut()
	status.HasCheckedIn = record.HasCheckedIn()
	status.HasCheckedOut = record.HasCheckedOut()
	status.OnBreak = record.OnBreak()
	status.CanCheckIn = !record.HasCheckedIn()
	status.CanCheckOut = open
	status.CanStartBreak = open && !record.OnBreak()
	status.CanEndBreak = record.OnBreak()

	resp := a.toResponse(record)
	status.Record = &resp
	return status, nil
}

func summarize(records []attendance.Attendance) attendance.RangeSummary {
	summary := attendance.RangeSummary{Days: len(records)}
	for _, r := range records {
		switch r.Status {
		case attendance.StatusPresent:
			summary.Present++
		case attendance.StatusLate:
			summary.Late++
		case attendance.StatusHalfDay:
			summary.HalfDay++
		case attendance.StatusAbsent:
			summary.Absent++
		}
		summary.TotalHours = summary.TotalHours.Add(r.TotalHours)
		summary.TotalOvertimeHours = summary.TotalOvertimeHours.Add(r.OvertimeHours)
	}
	return summary
}

func (a *AttendanceServiceImpl) formatTime(t time.Time) string {
	return t.In(a.policy.Location).Format(dateTimeLayout)
}

func (a *AttendanceServiceImpl) toPunchResponse(p *attendance.Punch) *attendance.PunchResponse {
	if p == nil {
		return nil
	}
	return &attendance.PunchResponse{
		Time:     a.formatTime(p.Time),
		Method:   string(p.Method),
		Location: p.Location,
	}
}

func (a *AttendanceServiceImpl) toResponse(record attendance.Attendance) attendance.AttendanceResponse {
	breaks := make([]attendance.BreakResponse, 0, len(record.BreakPeriods))
	for _, b := range record.BreakPeriods {
		br := attendance.BreakResponse{
			Start:           a.formatTime(b.Start),
			DurationMinutes: b.DurationMinutes,
		}
		if b.End != nil {
			end := a.formatTime(*b.End)
			br.End = &end
		}
		breaks = append(breaks, br)
	}

	return attendance.AttendanceResponse{
		ID:            record.ID,
		EmployeeID:    record.EmployeeID,
		Date:          record.Date.Format(dateLayout),
		CheckIn:       a.toPunchResponse(record.CheckIn),
		CheckOut:      a.toPunchResponse(record.CheckOut),
		BreakPeriods:  breaks,
		TotalHours:    record.TotalHours,
		OvertimeHours: record.OvertimeHours,
		Status:        string(record.Status),
		MarkedAbsent:  record.MarkedAbsent,
		AbsenceReason: record.AbsenceReason,
		CreatedAt:     a.formatTime(record.CreatedAt),
		UpdatedAt:     a.formatTime(record.UpdatedAt),
	}
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	policy attendance.Policy,
	clk clock.Clock,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		policy:               policy,
		clock:                clk,
	}
}
