package payroll_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/validator"
	payrollService "github.com/cmlabs-hris/timepay-backend-go/internal/service/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	empAlice    = "0b8f1c2a-3d4e-4f50-8a61-7b2c3d4e5f01"
	empBob      = "0b8f1c2a-3d4e-4f50-8a61-7b2c3d4e5f02"
	empNoSalary = "0b8f1c2a-3d4e-4f50-8a61-7b2c3d4e5f03"
	empNewHire  = "0b8f1c2a-3d4e-4f50-8a61-7b2c3d4e5f04"
	empUnknown  = "0b8f1c2a-3d4e-4f50-8a61-7b2c3d4e5f05"
)

type payslipStore struct {
	mu       sync.Mutex
	payslips map[string]payroll.Payslip
	failFor  map[string]error
}

func newPayslipStore() *payslipStore {
	return &payslipStore{
		payslips: make(map[string]payroll.Payslip),
		failFor:  make(map[string]error),
	}
}

func periodKey(employeeID string, start, end time.Time) string {
	return employeeID + "|" + start.Format("2006-01-02") + "|" + end.Format("2006-01-02")
}

func (s *payslipStore) Create(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[p.EmployeeID]; ok {
		return payroll.Payslip{}, err
	}
	for _, existing := range s.payslips {
		if periodKey(existing.EmployeeID, existing.PayPeriodStart, existing.PayPeriodEnd) == periodKey(p.EmployeeID, p.PayPeriodStart, p.PayPeriodEnd) {
			return payroll.Payslip{}, payroll.ErrDuplicatePayrollPeriod
		}
	}
	p.CreatedAt = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	s.payslips[p.ID] = p
	return p, nil
}

func (s *payslipStore) GetByID(ctx context.Context, id string) (payroll.Payslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

func (s *payslipStore) ExistsForPeriod(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payslips {
		if periodKey(p.EmployeeID, p.PayPeriodStart, p.PayPeriodEnd) == periodKey(employeeID, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *payslipStore) List(ctx context.Context, filter payroll.PayslipFilter) ([]payroll.Payslip, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []payroll.Payslip
	for _, p := range s.payslips {
		if filter.EmployeeID != nil && p.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(p.Status) != *filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (s *payslipStore) UpdateStatus(ctx context.Context, id string, from, to payroll.PayslipStatus, paymentDate *time.Time) (payroll.Payslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payslips[id]
	if !ok || p.Status != from {
		return payroll.Payslip{}, payroll.ErrInvalidStatusTransition
	}
	p.Status = to
	if paymentDate != nil {
		p.PaymentDate = paymentDate
	}
	s.payslips[id] = p
	return p, nil
}

func (s *payslipStore) GetPeriodSummary(ctx context.Context, start, end time.Time) (payroll.PeriodSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := payroll.PeriodSummary{PayPeriodStart: start, PayPeriodEnd: end}
	for _, p := range s.payslips {
		if !p.PayPeriodStart.Equal(start) || !p.PayPeriodEnd.Equal(end) {
			continue
		}
		summary.TotalPayslips++
		switch p.Status {
		case payroll.PayslipStatusDraft:
			summary.DraftCount++
		case payroll.PayslipStatusProcessed:
			summary.ProcessedCount++
		case payroll.PayslipStatusPaid:
			summary.PaidCount++
		}
		summary.TotalGross = summary.TotalGross.Add(p.GrossSalary)
		summary.TotalDeductions = summary.TotalDeductions.Add(p.Deductions.Total())
		summary.TotalNet = summary.TotalNet.Add(p.NetSalary)
	}
	return summary, nil
}

type ledger map[string][]attendance.Attendance

func (l ledger) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	return l[employeeID], nil
}

type employeeDirectory struct {
	employees map[string]employee.Employee
	order     []string
}

func (d employeeDirectory) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e, ok := d.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (d employeeDirectory) ListActive(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range d.order {
		if e := d.employees[id]; e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

func salary(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

type fixture struct {
	svc   payroll.PayrollService
	store *payslipStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	hired := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	active := employee.EmploymentStatusActive
	dir := employeeDirectory{
		employees: map[string]employee.Employee{
			empAlice:     {ID: empAlice, HireDate: hired, EmploymentStatus: active, BaseSalary: salary(90000)},
			empBob:     {ID: empBob, HireDate: hired, EmploymentStatus: active, BaseSalary: salary(60000)},
			empNoSalary: {ID: empNoSalary, HireDate: hired, EmploymentStatus: active},
			empNewHire:  {ID: empNewHire, HireDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), EmploymentStatus: active, BaseSalary: salary(50000)},
		},
		order: []string{empAlice, empBob, empNoSalary, empNewHire},
	}

	overtime := decimal.NewFromInt(10)
	records := ledger{
		empBob: {
			{EmployeeID: empBob, TotalHours: decimal.NewFromInt(18), OvertimeHours: overtime},
		},
	}

	store := newPayslipStore()
	clk := clock.NewFixed(time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC))

	return fixture{
		svc:   payrollService.NewPayrollService(store, records, dir, payroll.DefaultPolicy(), clk, 2),
		store: store,
	}
}

func marchRequest(employeeID string) payroll.CalculatePayslipRequest {
	return payroll.CalculatePayslipRequest{
		EmployeeID: employeeID,
		PeriodRequest: payroll.PeriodRequest{
			PayPeriodStart: "2025-03-01",
			PayPeriodEnd:   "2025-03-30",
		},
	}
}

func TestPayrollService_Calculate(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Calculate(context.Background(), marchRequest(empAlice))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 30, resp.PeriodDays)
	assert.Equal(t, "90000.00", resp.BasicSalary.StringFixed(2))
	assert.Equal(t, "100000.00", resp.GrossSalary.StringFixed(2))
	assert.Equal(t, "draft", resp.Status)
	assert.True(t, resp.GrossSalary.Sub(resp.Deductions.Tax).Sub(resp.Deductions.Insurance).
		Sub(resp.Deductions.ProvidentFund).Sub(resp.Deductions.Other).Equal(resp.NetSalary))
}

func TestPayrollService_CalculateUsesLedgerOvertime(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Calculate(context.Background(), marchRequest(empBob))
	require.NoError(t, err)

	// 60000 / (30 * 8) * 1.5 = 375 per hour
	assert.Equal(t, "375.0000", resp.Overtime.Rate.StringFixed(4))
	assert.Equal(t, "3750.00", resp.Overtime.Amount.StringFixed(2))
	assert.Equal(t, "18.00", resp.WorkedHours.StringFixed(2))
}

func TestPayrollService_CalculateErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		employeeID string
		want       error
	}{
		{"unknown employee", empUnknown, employee.ErrEmployeeNotFound},
		{"no base salary", empNoSalary, payroll.ErrEmployeeHasNoBaseSalary},
		{"hired after period", empNewHire, payroll.ErrEmployeeNotEmployed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Calculate(ctx, marchRequest(tt.employeeID))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPayrollService_CalculateRejectsDuplicatePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Calculate(ctx, marchRequest(empAlice))
	require.NoError(t, err)

	_, err = f.svc.Calculate(ctx, marchRequest(empAlice))
	assert.ErrorIs(t, err, payroll.ErrDuplicatePayrollPeriod)
	assert.Len(t, f.store.payslips, 1)
}

func TestPayrollService_CalculateValidation(t *testing.T) {
	f := newFixture(t)

	req := marchRequest(empAlice)
	req.PayPeriodEnd = "2025-02-01"

	_, err := f.svc.Calculate(context.Background(), req)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "pay_period_end")
}

func TestPayrollService_CalculateBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Calculate(ctx, marchRequest(empBob))
	require.NoError(t, err)

	f.store.failFor[empAlice] = errors.New("connection reset")

	resp, err := f.svc.CalculateBatch(ctx, payroll.CalculateBatchRequest{
		EmployeeIDs:   []string{empAlice, empBob, empNoSalary, empAlice, empUnknown},
		ActorRole:     user.RoleManager,
		PeriodRequest: marchRequest("").PeriodRequest,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 4)
	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, 0, resp.Succeeded)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, 3, resp.Failed)

	assert.Equal(t, empAlice, resp.Results[0].EmployeeID)
	assert.Equal(t, payroll.BatchOutcomeError, resp.Results[0].Outcome)
	assert.Contains(t, resp.Results[0].Reason, "connection reset")

	assert.Equal(t, empBob, resp.Results[1].EmployeeID)
	assert.Equal(t, payroll.BatchOutcomeSkipped, resp.Results[1].Outcome)

	assert.Equal(t, empNoSalary, resp.Results[2].EmployeeID)
	assert.Equal(t, payroll.ErrEmployeeHasNoBaseSalary.Error(), resp.Results[2].Reason)

	assert.Equal(t, empUnknown, resp.Results[3].EmployeeID)
	assert.Equal(t, payroll.BatchOutcomeError, resp.Results[3].Outcome)
}

func TestPayrollService_CalculateBatchAllActive(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.CalculateBatch(context.Background(), payroll.CalculateBatchRequest{
		ActorRole:     user.RoleOwner,
		PeriodRequest: marchRequest("").PeriodRequest,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 4)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 2, resp.Failed)
	assert.Equal(t, empAlice, resp.Results[0].EmployeeID)
	require.NotNil(t, resp.Results[0].Payslip)
	assert.Len(t, f.store.payslips, 2)
}

func TestPayrollService_CalculateBatchRequiresManager(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CalculateBatch(context.Background(), payroll.CalculateBatchRequest{
		ActorRole:     user.RoleEmployee,
		PeriodRequest: marchRequest("").PeriodRequest,
	})
	assert.ErrorIs(t, err, payroll.ErrBatchCalculationForbidden)
	assert.Empty(t, f.store.payslips)
}

func TestPayrollService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slip, err := f.svc.Calculate(ctx, marchRequest(empAlice))
	require.NoError(t, err)

	processed, err := f.svc.UpdateStatus(ctx, payroll.UpdatePayslipStatusRequest{ID: slip.ID, Status: "processed"})
	require.NoError(t, err)
	assert.Equal(t, "processed", processed.Status)
	assert.Nil(t, processed.PaymentDate)

	paid, err := f.svc.UpdateStatus(ctx, payroll.UpdatePayslipStatusRequest{ID: slip.ID, Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaymentDate)
	assert.Equal(t, "2025-04-02", *paid.PaymentDate)

	_, err = f.svc.UpdateStatus(ctx, payroll.UpdatePayslipStatusRequest{ID: slip.ID, Status: "draft"})
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)
}

func TestPayrollService_UpdateStatusValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	date := "2025-04-05"
	_, err := f.svc.UpdateStatus(ctx, payroll.UpdatePayslipStatusRequest{ID: "x", Status: "processed", PaymentDate: &date})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	_, err = f.svc.UpdateStatus(ctx, payroll.UpdatePayslipStatusRequest{ID: "missing", Status: "paid"})
	assert.ErrorIs(t, err, payroll.ErrPayslipNotFound)
}

func TestPayrollService_UpdateStatusKeepsExplicitPaymentDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slip, err := f.svc.Calculate(ctx, marchRequest(empAlice))
	require.NoError(t, err)

	date := "2025-03-31"
	paid, err := f.svc.UpdateStatus(ctx, payroll.UpdatePayslipStatusRequest{ID: slip.ID, Status: "paid", PaymentDate: &date})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-31", *paid.PaymentDate)
}

func TestPayrollService_ListAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Calculate(ctx, marchRequest(empAlice))
	require.NoError(t, err)
	_, err = f.svc.Calculate(ctx, marchRequest(empBob))
	require.NoError(t, err)

	list, err := f.svc.ListPayslips(ctx, payroll.PayslipFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalCount)
	assert.Equal(t, 1, list.TotalPages)
	assert.Equal(t, "1-2 of 2", list.Showing)

	got, err := f.svc.GetPayslip(ctx, list.Payslips[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list.Payslips[0].ID, got.ID)

	summary, err := f.svc.GetPeriodSummary(ctx, "2025-03-01", "2025-03-30")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalPayslips)
	assert.Equal(t, 2, summary.DraftCount)
	assert.True(t, summary.TotalGross.Sub(summary.TotalDeductions).Equal(summary.TotalNet))

	_, err = f.svc.GetPeriodSummary(ctx, "2025-03-30", "2025-03-01")
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestPayrollService_MalformedIDsAreValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var verrs validator.ValidationErrors

	_, err := f.svc.Calculate(ctx, marchRequest("emp-1"))
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "employee_id")

	_, err = f.svc.GetPayslip(ctx, "slip-1")
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "id")

	_, err = f.svc.UpdateStatus(ctx, payroll.UpdatePayslipStatusRequest{ID: "slip-1", Status: "processed"})
	require.ErrorAs(t, err, &verrs)

	_, err = f.svc.CalculateBatch(ctx, payroll.CalculateBatchRequest{
		EmployeeIDs:   []string{empAlice, "emp-2"},
		ActorRole:     user.RoleOwner,
		PeriodRequest: marchRequest("").PeriodRequest,
	})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "employee_ids[1]")

	assert.Empty(t, f.store.payslips)
}

func TestPayrollService_CalculateBatchStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.CalculateBatch(ctx, payroll.CalculateBatchRequest{
		EmployeeIDs:   []string{empAlice, empBob},
		ActorRole:     user.RoleOwner,
		PeriodRequest: marchRequest("").PeriodRequest,
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.payslips)
}
