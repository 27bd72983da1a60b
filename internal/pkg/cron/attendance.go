package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/clock"
)

const autoAbsenceReason = "Auto-marked: no attendance recorded for this day"

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	employeeRepo      employee.EmployeeRepository
	policy            attendance.Policy
	clock             clock.Clock
}

func NewAttendanceJobs(
	attendanceService attendance.AttendanceService,
	employeeRepo employee.EmployeeRepository,
	policy attendance.Policy,
	clk clock.Clock,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		employeeRepo:      employeeRepo,
		policy:            policy,
		clock:             clk,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("mark_absent_employees", interval, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees records an absence for every active employee that has no
// entry for the previous local day. Existing entries are left alone, so the
// job can run any number of times per day.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	yesterday := j.policy.DayOf(j.clock.Now()).AddDate(0, 0, -1)
	date := yesterday.Format("2006-01-02")

	slog.InfoContext(ctx, "Cron: Starting mark absent employees job", "date", date)

	employees, err := j.employeeRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	reason := autoAbsenceReason
	markedCount := 0
	var errs []error
	for _, emp := range employees {
		if !emp.EmployedDuring(yesterday, yesterday) {
			continue
		}

		_, err := j.attendanceService.MarkAbsent(ctx, attendance.MarkAbsentRequest{
			EmployeeID: emp.ID,
			Date:       date,
			Reason:     &reason,
		})
		switch {
		case err == nil:
			markedCount++
		case errors.Is(err, attendance.ErrAttendanceExists):
		default:
			slog.ErrorContext(ctx, "Cron: Failed to mark employee absent", "employee_id", emp.ID, "error", err)
			errs = append(errs, fmt.Errorf("employee %s: %w", emp.ID, err))
		}
	}

	slog.InfoContext(ctx, "Cron: Mark absent employees job finished", "date", date, "marked", markedCount, "failed", len(errs))
	return errors.Join(errs...)
}
