package payroll

import "context"

type PayrollService interface {
	// Calculate computes and stores the payslip of one employee for one period.
	Calculate(ctx context.Context, req CalculatePayslipRequest) (PayslipResponse, error)

	// CalculateBatch runs Calculate per employee. One employee's failure is
	// reported in its item and never aborts the rest.
	CalculateBatch(ctx context.Context, req CalculateBatchRequest) (BatchResultResponse, error)

	UpdateStatus(ctx context.Context, req UpdatePayslipStatusRequest) (PayslipResponse, error)
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	ListPayslips(ctx context.Context, filter PayslipFilter) (ListPayslipResponse, error)
	GetPeriodSummary(ctx context.Context, periodStart, periodEnd string) (PeriodSummaryResponse, error)
}
