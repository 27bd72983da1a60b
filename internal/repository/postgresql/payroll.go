package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type payslipRepository struct {
	db database.Querier
}

func NewPayslipRepository(db database.Querier) payroll.PayslipRepository {
	return &payslipRepository{db: db}
}

const payslipColumns = `
	id, employee_id, pay_period_start, pay_period_end, period_days,
	worked_hours, monthly_salary, basic_salary,
	overtime_hours, overtime_rate, overtime_amount,
	allowance_transport, allowance_meal, allowance_medical, allowance_other,
	deduction_tax, deduction_insurance, deduction_provident_fund, deduction_other,
	gross_salary, net_salary, status, payment_date,
	created_at, updated_at`

// Create implements payroll.PayslipRepository.
func (r *payslipRepository) Create(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return payroll.Payslip{}, fmt.Errorf("failed to generate payslip id: %w", err)
		}
		p.ID = id.String()
	}

	query := `
		INSERT INTO payslips (
			id, employee_id, pay_period_start, pay_period_end, period_days,
			worked_hours, monthly_salary, basic_salary,
			overtime_hours, overtime_rate, overtime_amount,
			allowance_transport, allowance_meal, allowance_medical, allowance_other,
			deduction_tax, deduction_insurance, deduction_provident_fund, deduction_other,
			gross_salary, net_salary, status, payment_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.ID, p.EmployeeID, p.PayPeriodStart, p.PayPeriodEnd, p.PeriodDays,
		p.WorkedHours, p.MonthlySalary, p.BasicSalary,
		p.Overtime.Hours, p.Overtime.Rate, p.Overtime.Amount,
		p.Allowances.Transport, p.Allowances.Meal, p.Allowances.Medical, p.Allowances.Other,
		p.Deductions.Tax, p.Deductions.Insurance, p.Deductions.ProvidentFund, p.Deductions.Other,
		p.GrossSalary, p.NetSalary, string(p.Status), p.PaymentDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, payslipPeriodConstraint) {
			return payroll.Payslip{}, payroll.ErrDuplicatePayrollPeriod
		}
		if isForeignKeyViolation(err) {
			return payroll.Payslip{}, employee.ErrEmployeeNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}

	return p, nil
}

// GetByID implements payroll.PayslipRepository.
func (r *payslipRepository) GetByID(ctx context.Context, id string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE id = $1`

	p, err := scanPayslip(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	return p, nil
}

// ExistsForPeriod implements payroll.PayslipRepository.
func (r *payslipRepository) ExistsForPeriod(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM payslips
			WHERE employee_id = $1 AND pay_period_start = $2 AND pay_period_end = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check payslip period: %w", err)
	}
	return exists, nil
}

// List implements payroll.PayslipRepository.
func (r *payslipRepository) List(ctx context.Context, filter payroll.PayslipFilter) ([]payroll.Payslip, int64, error) {
	q := GetQuerier(ctx, r.db)

	where, args := buildPayslipWhere(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM payslips` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payslips: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM payslips%s ORDER BY pay_period_start DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		payslipColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	payslips := make([]payroll.Payslip, 0)
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payslips: %w", err)
	}

	return payslips, total, nil
}

func buildPayslipWhere(filter payroll.PayslipFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.EmployeeID != nil {
		add("employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.PayPeriodStart != nil {
		add("pay_period_start >= $%d", *filter.PayPeriodStart)
	}
	if filter.PayPeriodEnd != nil {
		add("pay_period_end <= $%d", *filter.PayPeriodEnd)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// UpdateStatus implements payroll.PayslipRepository.
func (r *payslipRepository) UpdateStatus(ctx context.Context, id string, from, to payroll.PayslipStatus, paymentDate *time.Time) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips
		SET status = $3, payment_date = COALESCE($4, payment_date), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + payslipColumns

	p, err := scanPayslip(q.QueryRow(ctx, query, id, string(from), string(to), paymentDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrInvalidStatusTransition
		}
		return payroll.Payslip{}, fmt.Errorf("failed to update payslip status: %w", err)
	}
	return p, nil
}

// GetPeriodSummary implements payroll.PayslipRepository.
func (r *payslipRepository) GetPeriodSummary(ctx context.Context, start, end time.Time) (payroll.PeriodSummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'processed'),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COALESCE(SUM(gross_salary), 0),
			COALESCE(SUM(deduction_tax + deduction_insurance + deduction_provident_fund + deduction_other), 0),
			COALESCE(SUM(net_salary), 0)
		FROM payslips
		WHERE pay_period_start = $1 AND pay_period_end = $2
	`

	summary := payroll.PeriodSummary{PayPeriodStart: start, PayPeriodEnd: end}
	err := q.QueryRow(ctx, query, start, end).Scan(
		&summary.TotalPayslips,
		&summary.DraftCount,
		&summary.ProcessedCount,
		&summary.PaidCount,
		&summary.TotalGross,
		&summary.TotalDeductions,
		&summary.TotalNet,
	)
	if err != nil {
		return payroll.PeriodSummary{}, fmt.Errorf("failed to get payroll summary: %w", err)
	}
	return summary, nil
}

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	var status string

	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PayPeriodStart, &p.PayPeriodEnd, &p.PeriodDays,
		&p.WorkedHours, &p.MonthlySalary, &p.BasicSalary,
		&p.Overtime.Hours, &p.Overtime.Rate, &p.Overtime.Amount,
		&p.Allowances.Transport, &p.Allowances.Meal, &p.Allowances.Medical, &p.Allowances.Other,
		&p.Deductions.Tax, &p.Deductions.Insurance, &p.Deductions.ProvidentFund, &p.Deductions.Other,
		&p.GrossSalary, &p.NetSalary, &status, &p.PaymentDate,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return payroll.Payslip{}, err
	}

	p.Status = payroll.PayslipStatus(status)
	return p, nil
}
