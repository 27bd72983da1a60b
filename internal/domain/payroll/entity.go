package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayslipStatus enum
type PayslipStatus string

const (
	PayslipStatusDraft     PayslipStatus = "draft"
	PayslipStatusProcessed PayslipStatus = "processed"
	PayslipStatusPaid      PayslipStatus = "paid"
)

func (s PayslipStatus) IsValid() bool {
	switch s {
	case PayslipStatusDraft, PayslipStatusProcessed, PayslipStatusPaid:
		return true
	}
	return false
}

func (s PayslipStatus) rank() int {
	switch s {
	case PayslipStatusDraft:
		return 0
	case PayslipStatusProcessed:
		return 1
	case PayslipStatusPaid:
		return 2
	}
	return -1
}

// CanTransitionTo allows forward moves only: draft -> processed -> paid,
// with draft -> paid as a shortcut.
func (s PayslipStatus) CanTransitionTo(next PayslipStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() > s.rank()
}

type Overtime struct {
	Hours  decimal.Decimal `json:"hours"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type Allowances struct {
	Transport decimal.Decimal `json:"transport"`
	Meal      decimal.Decimal `json:"meal"`
	Medical   decimal.Decimal `json:"medical"`
	Other     decimal.Decimal `json:"other"`
}

func (a Allowances) Total() decimal.Decimal {
	return a.Transport.Add(a.Meal).Add(a.Medical).Add(a.Other)
}

type Deductions struct {
	Tax           decimal.Decimal `json:"tax"`
	Insurance     decimal.Decimal `json:"insurance"`
	ProvidentFund decimal.Decimal `json:"provident_fund"`
	Other         decimal.Decimal `json:"other"`
}

func (d Deductions) Total() decimal.Decimal {
	return d.Tax.Add(d.Insurance).Add(d.ProvidentFund).Add(d.Other)
}

// Payslip is the computed pay of one employee for one period.
type Payslip struct {
	ID             string
	EmployeeID     string
	PayPeriodStart time.Time
	PayPeriodEnd   time.Time
	PeriodDays     int
	WorkedHours    decimal.Decimal
	MonthlySalary  decimal.Decimal
	BasicSalary    decimal.Decimal
	Overtime       Overtime
	Allowances     Allowances
	Deductions     Deductions
	GrossSalary    decimal.Decimal
	NetSalary      decimal.Decimal
	Status         PayslipStatus
	PaymentDate    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasNegativeNet flags a data-quality problem. The value is kept as is.
func (p Payslip) HasNegativeNet() bool {
	return p.NetSalary.IsNegative()
}

// AttendanceTotals aggregates the ledger for one employee over a period.
type AttendanceTotals struct {
	Days          int
	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal
}

// PeriodSummary aggregates payslips for one period per status.
type PeriodSummary struct {
	PayPeriodStart  time.Time
	PayPeriodEnd    time.Time
	TotalPayslips   int
	DraftCount      int
	ProcessedCount  int
	PaidCount       int
	TotalGross      decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNet        decimal.Decimal
}
