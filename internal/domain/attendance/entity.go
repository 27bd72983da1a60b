package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodManual    Method = "manual"
	MethodBiometric Method = "biometric"
	MethodMobile    Method = "mobile"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodManual, MethodBiometric, MethodMobile:
		return true
	}
	return false
}

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half-day"
)

type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Address   *string `json:"address,omitempty"`
}

// Punch is a single check-in or check-out event.
type Punch struct {
	Time     time.Time
	Method   Method
	Location *Location
}

type BreakPeriod struct {
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

func (b BreakPeriod) IsOpen() bool {
	return b.End == nil
}

// Attendance is the ledger entry of one employee for one calendar day.
type Attendance struct {
	ID            string
	EmployeeID    string
	Date          time.Time
	CheckIn       *Punch
	CheckOut      *Punch
	BreakPeriods  []BreakPeriod
	TotalHours    decimal.Decimal
	OvertimeHours decimal.Decimal
	Status        Status
	MarkedAbsent  bool
	AbsenceReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a *Attendance) HasCheckedIn() bool {
	return a.CheckIn != nil
}

func (a *Attendance) HasCheckedOut() bool {
	return a.CheckOut != nil
}

// OpenBreak returns the index of the open break, or -1.
func (a *Attendance) OpenBreak() int {
	for i := len(a.BreakPeriods) - 1; i >= 0; i-- {
		if a.BreakPeriods[i].IsOpen() {
			return i
		}
	}
	return -1
}

func (a *Attendance) OnBreak() bool {
	return a.OpenBreak() >= 0
}
