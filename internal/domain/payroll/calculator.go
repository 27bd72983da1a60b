package payroll

import (
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

const (
	moneyPrecision = 2
	ratePrecision  = 4
)

// Policy is the pay configuration. StandardMonthDays is a fixed divisor,
// not the calendar length of the month.
type Policy struct {
	StandardMonthDays  int
	StandardDayHours   decimal.Decimal
	OvertimeMultiplier decimal.Decimal
	Allowances         Allowances
	InsuranceRate      decimal.Decimal
	ProvidentFundRate  decimal.Decimal
	OtherDeduction     decimal.Decimal
	TaxSchedule        TaxSchedule
	InitialStatus      PayslipStatus
}

func DefaultPolicy() Policy {
	return Policy{
		StandardMonthDays:  30,
		StandardDayHours:   decimal.NewFromInt(8),
		OvertimeMultiplier: decimal.RequireFromString("1.5"),
		Allowances: Allowances{
			Transport: decimal.NewFromInt(5000),
			Meal:      decimal.NewFromInt(3000),
			Medical:   decimal.NewFromInt(2000),
			Other:     decimal.Zero,
		},
		InsuranceRate:     decimal.RequireFromString("0.02"),
		ProvidentFundRate: decimal.RequireFromString("0.08"),
		OtherDeduction:    decimal.Zero,
		TaxSchedule:       DefaultTaxSchedule(),
		InitialStatus:     PayslipStatusDraft,
	}
}

// PeriodDays counts calendar days in [start, end], both inclusive.
func PeriodDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

// SumAttendance totals worked and overtime hours over the ledger entries of a period.
func SumAttendance(records []attendance.Attendance) AttendanceTotals {
	totals := AttendanceTotals{
		WorkedHours:   decimal.Zero,
		OvertimeHours: decimal.Zero,
	}
	for _, r := range records {
		totals.Days++
		totals.WorkedHours = totals.WorkedHours.Add(r.TotalHours)
		totals.OvertimeHours = totals.OvertimeHours.Add(r.OvertimeHours)
	}
	return totals
}

// Compute derives a payslip in this order: prorated basic pay, overtime,
// allowances, gross, tax, insurance, provident fund, net. Each money line is
// rounded to cents before it is summed so gross and net add up exactly.
func (p Policy) Compute(employeeID string, monthlySalary decimal.Decimal, periodStart, periodEnd time.Time, totals AttendanceTotals) (Payslip, error) {
	if periodEnd.Before(periodStart) {
		return Payslip{}, ErrInvalidPeriod
	}
	if monthlySalary.IsNegative() {
		return Payslip{}, ErrEmployeeHasNoBaseSalary
	}

	days := PeriodDays(periodStart, periodEnd)
	monthDays := decimal.NewFromInt(int64(p.StandardMonthDays))

	basic := monthlySalary.Mul(decimal.NewFromInt(int64(days))).Div(monthDays).Round(moneyPrecision)

	hourly := monthlySalary.Div(monthDays.Mul(p.StandardDayHours))
	otRate := hourly.Mul(p.OvertimeMultiplier)
	overtime := Overtime{
		Hours:  totals.OvertimeHours,
		Rate:   otRate.Round(ratePrecision),
		Amount: totals.OvertimeHours.Mul(otRate).Round(moneyPrecision),
	}

	allowances := Allowances{
		Transport: p.Allowances.Transport.Round(moneyPrecision),
		Meal:      p.Allowances.Meal.Round(moneyPrecision),
		Medical:   p.Allowances.Medical.Round(moneyPrecision),
		Other:     p.Allowances.Other.Round(moneyPrecision),
	}

	gross := basic.Add(overtime.Amount).Add(allowances.Total())

	deductions := Deductions{
		Tax:           p.TaxSchedule.Tax(gross).Round(moneyPrecision),
		Insurance:     gross.Mul(p.InsuranceRate).Round(moneyPrecision),
		ProvidentFund: gross.Mul(p.ProvidentFundRate).Round(moneyPrecision),
		Other:         p.OtherDeduction.Round(moneyPrecision),
	}

	return Payslip{
		EmployeeID:     employeeID,
		PayPeriodStart: periodStart,
		PayPeriodEnd:   periodEnd,
		PeriodDays:     days,
		WorkedHours:    totals.WorkedHours,
		MonthlySalary:  monthlySalary,
		BasicSalary:    basic,
		Overtime:       overtime,
		Allowances:     allowances,
		Deductions:     deductions,
		GrossSalary:    gross,
		NetSalary:      gross.Sub(deductions.Total()),
		Status:         p.InitialStatus,
	}, nil
}
