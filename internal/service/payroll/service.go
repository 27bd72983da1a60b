package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	dateLayout              = "2006-01-02"
	defaultBatchConcurrency = 4
)

type PayrollServiceImpl struct {
	payslipRepo      payroll.PayslipRepository
	attendanceReader payroll.AttendanceReader
	employeeRepo     employee.EmployeeRepository
	policy           payroll.Policy
	clock            clock.Clock
	batchConcurrency int
}

func NewPayrollService(
	payslipRepo payroll.PayslipRepository,
	attendanceReader payroll.AttendanceReader,
	employeeRepo employee.EmployeeRepository,
	policy payroll.Policy,
	clk clock.Clock,
	batchConcurrency int,
) payroll.PayrollService {
	if batchConcurrency < 1 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &PayrollServiceImpl{
		payslipRepo:      payslipRepo,
		attendanceReader: attendanceReader,
		employeeRepo:     employeeRepo,
		policy:           policy,
		clock:            clk,
		batchConcurrency: batchConcurrency,
	}
}

// Calculate implements payroll.PayrollService.
func (s *PayrollServiceImpl) Calculate(ctx context.Context, req payroll.CalculatePayslipRequest) (payroll.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}
	start, end := req.Period()

	slip, err := s.calculate(ctx, req.EmployeeID, start, end)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return mapPayslipToResponse(slip), nil
}

func (s *PayrollServiceImpl) calculate(ctx context.Context, employeeID string, start, end time.Time) (payroll.Payslip, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.Payslip{}, employee.ErrEmployeeNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get employee: %w", err)
	}

	if emp.BaseSalary == nil || emp.BaseSalary.IsNegative() {
		return payroll.Payslip{}, payroll.ErrEmployeeHasNoBaseSalary
	}
	if !emp.EmployedDuring(start, end) {
		return payroll.Payslip{}, payroll.ErrEmployeeNotEmployed
	}

	exists, err := s.payslipRepo.ExistsForPeriod(ctx, employeeID, start, end)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to check existing payslip: %w", err)
	}
	if exists {
		return payroll.Payslip{}, payroll.ErrDuplicatePayrollPeriod
	}

	records, err := s.attendanceReader.ListByEmployeeAndRange(ctx, employeeID, start, end)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to get attendance for period: %w", err)
	}

	slip, err := s.policy.Compute(employeeID, *emp.BaseSalary, start, end, payroll.SumAttendance(records))
	if err != nil {
		return payroll.Payslip{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to generate payslip id: %w", err)
	}
	slip.ID = id.String()

	if slip.HasNegativeNet() {
		slog.WarnContext(ctx, "payslip has negative net salary",
			"employee_id", employeeID,
			"pay_period_start", start.Format(dateLayout),
			"net_salary", slip.NetSalary.String(),
		)
	}

	created, err := s.payslipRepo.Create(ctx, slip)
	if err != nil {
		if errors.Is(err, payroll.ErrDuplicatePayrollPeriod) {
			return payroll.Payslip{}, payroll.ErrDuplicatePayrollPeriod
		}
		return payroll.Payslip{}, fmt.Errorf("failed to save payslip: %w", err)
	}

	return created, nil
}

// CalculateBatch implements payroll.PayrollService.
func (s *PayrollServiceImpl) CalculateBatch(ctx context.Context, req payroll.CalculateBatchRequest) (payroll.BatchResultResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResultResponse{}, err
	}
	if !(user.Actor{Role: req.ActorRole}).IsManager() {
		return payroll.BatchResultResponse{}, payroll.ErrBatchCalculationForbidden
	}
	start, end := req.Period()

	employeeIDs, err := s.batchEmployeeIDs(ctx, req.EmployeeIDs)
	if err != nil {
		return payroll.BatchResultResponse{}, err
	}

	results := make([]payroll.BatchItemResult, len(employeeIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)

	// Item failures are recorded per employee; only cancellation stops the batch.
	for i, employeeID := range employeeIDs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = s.calculateItem(gCtx, employeeID, start, end)
			return gCtx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "payroll batch interrupted",
			"pay_period_start", start.Format(dateLayout),
			"pay_period_end", end.Format(dateLayout),
			"error", err,
		)
		return payroll.BatchResultResponse{}, fmt.Errorf("failed to finish payroll batch: %w", err)
	}

	batchID := uuid.NewString()
	response := payroll.BatchResultResponse{
		BatchID:        batchID,
		PayPeriodStart: start.Format(dateLayout),
		PayPeriodEnd:   end.Format(dateLayout),
		Total:          len(results),
		Results:        results,
	}
	for _, r := range results {
		switch r.Outcome {
		case payroll.BatchOutcomeSuccess:
			response.Succeeded++
		case payroll.BatchOutcomeSkipped:
			response.Skipped++
		case payroll.BatchOutcomeError:
			response.Failed++
		}
	}

	slog.InfoContext(ctx, "payroll batch finished",
		"batch_id", batchID,
		"pay_period_start", response.PayPeriodStart,
		"pay_period_end", response.PayPeriodEnd,
		"total", response.Total,
		"succeeded", response.Succeeded,
		"skipped", response.Skipped,
		"failed", response.Failed,
	)

	return response, nil
}

// batchEmployeeIDs returns requested ids without duplicates, or every active
// employee when none were requested.
func (s *PayrollServiceImpl) batchEmployeeIDs(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) == 0 {
		employees, err := s.employeeRepo.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active employees: %w", err)
		}
		ids := make([]string, 0, len(employees))
		for _, emp := range employees {
			ids = append(ids, emp.ID)
		}
		return ids, nil
	}

	seen := make(map[string]bool, len(requested))
	ids := make([]string, 0, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *PayrollServiceImpl) calculateItem(ctx context.Context, employeeID string, start, end time.Time) payroll.BatchItemResult {
	result := payroll.BatchItemResult{EmployeeID: employeeID}

	slip, err := s.calculate(ctx, employeeID, start, end)
	switch {
	case err == nil:
		resp := mapPayslipToResponse(slip)
		result.Outcome = payroll.BatchOutcomeSuccess
		result.Payslip = &resp
	case payroll.IsAlreadyExists(err):
		result.Outcome = payroll.BatchOutcomeSkipped
		result.Reason = err.Error()
	default:
		result.Outcome = payroll.BatchOutcomeError
		result.Reason = err.Error()
		slog.WarnContext(ctx, "payroll calculation failed",
			"employee_id", employeeID,
			"pay_period_start", start.Format(dateLayout),
			"error", err,
		)
	}
	return result
}

// UpdateStatus implements payroll.PayrollService.
func (s *PayrollServiceImpl) UpdateStatus(ctx context.Context, req payroll.UpdatePayslipStatusRequest) (payroll.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}
	next := payroll.PayslipStatus(req.Status)

	paymentDate := req.ParsedPaymentDate()
	if paymentDate != nil && next != payroll.PayslipStatusPaid {
		return payroll.PayslipResponse{}, validator.ValidationErrors{{
			Field:   "payment_date",
			Message: "only allowed when status is 'paid'",
		}}
	}

	current, err := s.payslipRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, payroll.ErrPayslipNotFound) {
			return payroll.PayslipResponse{}, payroll.ErrPayslipNotFound
		}
		return payroll.PayslipResponse{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	if !current.Status.CanTransitionTo(next) {
		return payroll.PayslipResponse{}, payroll.ErrInvalidStatusTransition
	}

	if next == payroll.PayslipStatusPaid && paymentDate == nil {
		now := s.clock.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		paymentDate = &today
	}

	updated, err := s.payslipRepo.UpdateStatus(ctx, current.ID, current.Status, next, paymentDate)
	if err != nil {
		if errors.Is(err, payroll.ErrInvalidStatusTransition) {
			return payroll.PayslipResponse{}, payroll.ErrInvalidStatusTransition
		}
		return payroll.PayslipResponse{}, fmt.Errorf("failed to update payslip status: %w", err)
	}

	return mapPayslipToResponse(updated), nil
}

// GetPayslip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	if err := payroll.ValidatePayslipID(id); err != nil {
		return payroll.PayslipResponse{}, err
	}

	slip, err := s.payslipRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, payroll.ErrPayslipNotFound) {
			return payroll.PayslipResponse{}, payroll.ErrPayslipNotFound
		}
		return payroll.PayslipResponse{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	return mapPayslipToResponse(slip), nil
}

// ListPayslips implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListPayslips(ctx context.Context, filter payroll.PayslipFilter) (payroll.ListPayslipResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayslipResponse{}, err
	}

	payslips, total, err := s.payslipRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayslipResponse{}, fmt.Errorf("failed to list payslips: %w", err)
	}

	responses := make([]payroll.PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		responses = append(responses, mapPayslipToResponse(p))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return payroll.ListPayslipResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Payslips:   responses,
	}, nil
}

// GetPeriodSummary implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPeriodSummary(ctx context.Context, periodStart, periodEnd string) (payroll.PeriodSummaryResponse, error) {
	period := payroll.PeriodRequest{PayPeriodStart: periodStart, PayPeriodEnd: periodEnd}
	if err := period.Validate(); err != nil {
		return payroll.PeriodSummaryResponse{}, err
	}
	start, end := period.Period()

	summary, err := s.payslipRepo.GetPeriodSummary(ctx, start, end)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, fmt.Errorf("failed to get payroll summary: %w", err)
	}

	return payroll.PeriodSummaryResponse{
		PayPeriodStart:  start.Format(dateLayout),
		PayPeriodEnd:    end.Format(dateLayout),
		TotalPayslips:   summary.TotalPayslips,
		DraftCount:      summary.DraftCount,
		ProcessedCount:  summary.ProcessedCount,
		PaidCount:       summary.PaidCount,
		TotalGross:      summary.TotalGross,
		TotalDeductions: summary.TotalDeductions,
		TotalNet:        summary.TotalNet,
	}, nil
}

func mapPayslipToResponse(p payroll.Payslip) payroll.PayslipResponse {
	resp := payroll.PayslipResponse{
		ID:             p.ID,
		EmployeeID:     p.EmployeeID,
		PayPeriodStart: p.PayPeriodStart.Format(dateLayout),
		PayPeriodEnd:   p.PayPeriodEnd.Format(dateLayout),
		PeriodDays:     p.PeriodDays,
		WorkedHours:    p.WorkedHours,
		BasicSalary:    p.BasicSalary,
		Overtime:       p.Overtime,
		Allowances:     p.Allowances,
		Deductions:     p.Deductions,
		GrossSalary:    p.GrossSalary,
		NetSalary:      p.NetSalary,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
	if p.PaymentDate != nil {
		d := p.PaymentDate.Format(dateLayout)
		resp.PaymentDate = &d
	}
	return resp
}
