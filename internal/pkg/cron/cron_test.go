package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type absenceRecorder struct {
	attendance.AttendanceService

	mu      sync.Mutex
	marked  []attendance.MarkAbsentRequest
	results map[string]error
}

func (a *absenceRecorder) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.AttendanceResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.results[req.EmployeeID]; err != nil {
		return attendance.AttendanceResponse{}, err
	}
	a.marked = append(a.marked, req)
	return attendance.AttendanceResponse{EmployeeID: req.EmployeeID, Date: req.Date, Status: "absent"}, nil
}

type activeEmployees struct {
	list []employee.Employee
	err  error
}

func (e activeEmployees) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (e activeEmployees) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return e.list, e.err
}

func hired(id string, y int, m time.Month, d int) employee.Employee {
	return employee.Employee{
		ID:               id,
		HireDate:         time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: employee.EmploymentStatusActive,
	}
}

func TestMarkAbsentEmployees(t *testing.T) {
	policy := attendance.DefaultPolicy()
	policy.Location = time.FixedZone("WIB", 7*60*60)
	// 2025-03-05 01:30 local, still 2025-03-04 in UTC
	clk := clock.NewFixed(time.Date(2025, 3, 4, 18, 30, 0, 0, time.UTC))

	recorder := &absenceRecorder{results: map[string]error{
		"emp-present": attendance.ErrAttendanceExists,
		"emp-broken":  errors.New("connection reset"),
	}}
	employees := activeEmployees{list: []employee.Employee{
		hired("emp-absent", 2024, 1, 1),
		hired("emp-present", 2024, 1, 1),
		hired("emp-new", 2025, 3, 10),
		hired("emp-broken", 2024, 1, 1),
	}}

	jobs := NewAttendanceJobs(recorder, employees, policy, clk)
	err := jobs.MarkAbsentEmployees(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "emp-broken")
	require.Len(t, recorder.marked, 1)
	assert.Equal(t, "emp-absent", recorder.marked[0].EmployeeID)
	assert.Equal(t, "2025-03-04", recorder.marked[0].Date)
	require.NotNil(t, recorder.marked[0].Reason)
}

func TestMarkAbsentEmployees_ListFailure(t *testing.T) {
	jobs := NewAttendanceJobs(&absenceRecorder{}, activeEmployees{err: errors.New("db down")}, attendance.DefaultPolicy(), clock.System())

	err := jobs.MarkAbsentEmployees(context.Background())
	assert.ErrorContains(t, err, "failed to list active employees")
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var calls []string
	s.AddJob("first", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "first")
		return nil
	})
	s.AddJob("second", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "second")
		return errors.New("boom")
	})

	err := s.RunOnce(context.Background())

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.EqualError(t, err, "second: boom")
}

func TestScheduler_StartAndStop(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	ran := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()

	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler()
	assert.NotPanics(t, s.Stop)
}
