package attendance

import (
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// REQUEST DTOs
// ========================================

type CheckInRequest struct {
	EmployeeID string    `json:"-"`
	Method     string    `json:"method"`
	Location   *Location `json:"location,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	return validatePunch(r.EmployeeID, r.Method, r.Location)
}

type CheckOutRequest struct {
	EmployeeID string    `json:"-"`
	Method     string    `json:"method"`
	Location   *Location `json:"location,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	return validatePunch(r.EmployeeID, r.Method, r.Location)
}

func validatePunch(employeeID, method string, loc *Location) error {
	var errs validator.ValidationErrors

	errs = validateEmployeeID(errs, employeeID)

	if !Method(method).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "method",
			Message: "method must be one of: manual, biometric, mobile",
		})
	}

	if loc != nil {
		if !validator.IsValidLatitude(loc.Latitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "location.lat",
				Message: "latitude must be between -90 and 90",
			})
		}
		if !validator.IsValidLongitude(loc.Longitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "location.lon",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEmployeeID(errs validator.ValidationErrors, employeeID string) validator.ValidationErrors {
	if validator.IsEmpty(employeeID) {
		return append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if !validator.IsValidUUID(employeeID) {
		return append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	return errs
}

// ValidateEmployeeID checks a bare employee reference taken from a path or token.
func ValidateEmployeeID(employeeID string) error {
	if errs := validateEmployeeID(nil, employeeID); len(errs) > 0 {
		return errs
	}
	return nil
}

// DayRequest identifies one employee's day.
type DayRequest struct {
	EmployeeID string
	Date       string

	date time.Time
}

func (r *DayRequest) Validate() error {
	errs := validateEmployeeID(nil, r.EmployeeID)

	if d, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	} else {
		r.date = d
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParsedDate is valid after a successful Validate.
func (r *DayRequest) ParsedDate() time.Time {
	return r.date
}

type BreakRequest struct {
	EmployeeID string `json:"-"`
}

func (r *BreakRequest) Validate() error {
	if errs := validateEmployeeID(nil, r.EmployeeID); len(errs) > 0 {
		return errs
	}
	return nil
}

type MarkAbsentRequest struct {
	EmployeeID string  `json:"-"`
	Date       string  `json:"date"`
	Reason     *string `json:"reason,omitempty"`

	date time.Time
}

func (r *MarkAbsentRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = validateEmployeeID(errs, r.EmployeeID)

	if d, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	} else {
		r.date = d
	}

	if r.Reason != nil && len(*r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason must not exceed 500 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParsedDate is valid after a successful Validate.
func (r *MarkAbsentRequest) ParsedDate() time.Time {
	return r.date
}

const maxRangeDays = 366

type DateRangeFilter struct {
	EmployeeID string
	From       string
	To         string

	from time.Time
	to   time.Time
}

func (f *DateRangeFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = validateEmployeeID(errs, f.EmployeeID)

	from, okFrom := validator.IsValidDate(f.From)
	if !okFrom {
		errs = append(errs, validator.ValidationError{Field: "from", Message: "from must be in YYYY-MM-DD format"})
	}
	to, okTo := validator.IsValidDate(f.To)
	if !okTo {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "to must be in YYYY-MM-DD format"})
	}

	if okFrom && okTo {
		if to.Before(from) {
			errs = append(errs, validator.ValidationError{Field: "to", Message: "to must not be before from"})
		} else if to.Sub(from) > maxRangeDays*24*time.Hour {
			errs = append(errs, validator.ValidationError{Field: "to", Message: "range must not exceed 366 days"})
		}
		f.from, f.to = from, to
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Bounds is valid after a successful Validate.
func (f *DateRangeFilter) Bounds() (from, to time.Time) {
	return f.from, f.to
}

// ========================================
// RESPONSE DTOs
// ========================================

type PunchResponse struct {
	Time     string    `json:"time"`
	Method   string    `json:"method"`
	Location *Location `json:"location,omitempty"`
}

type BreakResponse struct {
	Start           string  `json:"start"`
	End             *string `json:"end,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

type AttendanceResponse struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	Date          string          `json:"date"`
	CheckIn       *PunchResponse  `json:"check_in,omitempty"`
	CheckOut      *PunchResponse  `json:"check_out,omitempty"`
	BreakPeriods  []BreakResponse `json:"break_periods"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	Status        string          `json:"status"`
	MarkedAbsent  bool            `json:"marked_absent"`
	AbsenceReason *string         `json:"absence_reason,omitempty"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

type RangeSummary struct {
	Days               int             `json:"days"`
	Present            int             `json:"present"`
	Late               int             `json:"late"`
	HalfDay            int             `json:"half_day"`
	Absent             int             `json:"absent"`
	TotalHours         decimal.Decimal `json:"total_hours"`
	TotalOvertimeHours decimal.Decimal `json:"total_overtime_hours"`
}

type ListAttendanceResponse struct {
	EmployeeID string               `json:"employee_id"`
	From       string               `json:"from"`
	To         string               `json:"to"`
	Summary    RangeSummary         `json:"summary"`
	Records    []AttendanceResponse `json:"records"`
}

type TodayStatusResponse struct {
	Date          string              `json:"date"`
	HasCheckedIn  bool                `json:"has_checked_in"`
	HasCheckedOut bool                `json:"has_checked_out"`
	OnBreak       bool                `json:"on_break"`
	CanCheckIn    bool                `json:"can_check_in"`
	CanCheckOut   bool                `json:"can_check_out"`
	CanStartBreak bool                `json:"can_start_break"`
	CanEndBreak   bool                `json:"can_end_break"`
	Record        *AttendanceResponse `json:"record,omitempty"`
}
