package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type PeriodRequest struct {
	PayPeriodStart string `json:"pay_period_start"`
	PayPeriodEnd   string `json:"pay_period_end"`

	start time.Time
	end   time.Time
}

func (r *PeriodRequest) validate(errs validator.ValidationErrors) validator.ValidationErrors {
	start, okStart := validator.IsValidDate(r.PayPeriodStart)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "pay_period_start", Message: "must be in YYYY-MM-DD format"})
	}
	end, okEnd := validator.IsValidDate(r.PayPeriodEnd)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "pay_period_end", Message: "must be in YYYY-MM-DD format"})
	}
	if okStart && okEnd {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{Field: "pay_period_end", Message: "must not be before pay_period_start"})
		}
		r.start, r.end = start, end
	}
	return errs
}

func (r *PeriodRequest) Validate() error {
	if errs := r.validate(nil); len(errs) > 0 {
		return errs
	}
	return nil
}

// Period is valid after a successful Validate.
func (r *PeriodRequest) Period() (start, end time.Time) {
	return r.start, r.end
}

type CalculatePayslipRequest struct {
	EmployeeID string `json:"employee_id"`
	PeriodRequest
}

func (r *CalculatePayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	errs = r.PeriodRequest.validate(errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CalculateBatchRequest calculates every listed employee, or every active
// employee when EmployeeIDs is empty.
type CalculateBatchRequest struct {
	EmployeeIDs []string  `json:"employee_ids,omitempty"`
	ActorRole   user.Role `json:"-"`
	PeriodRequest
}

func (r *CalculateBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	for i, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("employee_ids[%d]", i), Message: "must not be empty"})
		} else if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("employee_ids[%d]", i), Message: "must be a valid UUID"})
		}
	}
	errs = r.PeriodRequest.validate(errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePayslipID(errs validator.ValidationErrors, id string) validator.ValidationErrors {
	if validator.IsEmpty(id) {
		return append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if !validator.IsValidUUID(id) {
		return append(errs, validator.ValidationError{Field: "id", Message: "must be a valid UUID"})
	}
	return errs
}

// ValidatePayslipID checks a payslip reference taken from a path.
func ValidatePayslipID(id string) error {
	if errs := validatePayslipID(nil, id); len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePayslipStatusRequest struct {
	ID          string  `json:"-"`
	Status      string  `json:"status"`
	PaymentDate *string `json:"payment_date,omitempty"`

	paymentDate *time.Time
}

func (r *UpdatePayslipStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = validatePayslipID(errs, r.ID)
	if !PayslipStatus(r.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'draft', 'processed' or 'paid'"})
	}
	if r.PaymentDate != nil {
		if d, ok := validator.IsValidDate(*r.PaymentDate); ok {
			r.paymentDate = &d
		} else {
			errs = append(errs, validator.ValidationError{Field: "payment_date", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParsedPaymentDate is valid after a successful Validate.
func (r *UpdatePayslipStatusRequest) ParsedPaymentDate() *time.Time {
	return r.paymentDate
}

type PayslipFilter struct {
	EmployeeID     *string
	Status         *string
	PayPeriodStart *string
	PayPeriodEnd   *string
	Page           int
	Limit          int
}

func (f *PayslipFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Page < 1 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "must be at least 1"})
	}
	if f.Limit < 1 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must be between 1 and 100"})
	}
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if f.Status != nil && !PayslipStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'draft', 'processed' or 'paid'"})
	}
	if f.PayPeriodStart != nil {
		if _, ok := validator.IsValidDate(*f.PayPeriodStart); !ok {
			errs = append(errs, validator.ValidationError{Field: "pay_period_start", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if f.PayPeriodEnd != nil {
		if _, ok := validator.IsValidDate(*f.PayPeriodEnd); !ok {
			errs = append(errs, validator.ValidationError{Field: "pay_period_end", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (f *PayslipFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ========== RESPONSE DTOs ==========

type PayslipResponse struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	PayPeriodStart string          `json:"pay_period_start"`
	PayPeriodEnd   string          `json:"pay_period_end"`
	PeriodDays     int             `json:"period_days"`
	WorkedHours    decimal.Decimal `json:"worked_hours"`
	BasicSalary    decimal.Decimal `json:"basic_salary"`
	Overtime       Overtime        `json:"overtime"`
	Allowances     Allowances      `json:"allowances"`
	Deductions     Deductions      `json:"deductions"`
	GrossSalary    decimal.Decimal `json:"gross_salary"`
	NetSalary      decimal.Decimal `json:"net_salary"`
	Status         string          `json:"status"`
	PaymentDate    *string         `json:"payment_date,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

type BatchOutcome string

const (
	BatchOutcomeSuccess BatchOutcome = "success"
	BatchOutcomeSkipped BatchOutcome = "skipped"
	BatchOutcomeError   BatchOutcome = "error"
)

type BatchItemResult struct {
	EmployeeID string           `json:"employee_id"`
	Outcome    BatchOutcome     `json:"outcome"`
	Reason     string           `json:"reason,omitempty"`
	Payslip    *PayslipResponse `json:"payslip,omitempty"`
}

type BatchResultResponse struct {
	BatchID        string            `json:"batch_id"`
	PayPeriodStart string            `json:"pay_period_start"`
	PayPeriodEnd   string            `json:"pay_period_end"`
	Total          int               `json:"total"`
	Succeeded      int               `json:"succeeded"`
	Skipped        int               `json:"skipped"`
	Failed         int               `json:"failed"`
	Results        []BatchItemResult `json:"results"`
}

type ListPayslipResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Payslips   []PayslipResponse `json:"payslips"`
}

type PeriodSummaryResponse struct {
	PayPeriodStart  string          `json:"pay_period_start"`
	PayPeriodEnd    string          `json:"pay_period_end"`
	TotalPayslips   int             `json:"total_payslips"`
	DraftCount      int             `json:"draft_count"`
	ProcessedCount  int             `json:"processed_count"`
	PaidCount       int             `json:"paid_count"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
}
