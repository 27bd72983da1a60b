package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

const hoursPrecision = 2

// NewDay starts an empty ledger entry for employeeID on day.
func NewDay(employeeID string, day time.Time) Attendance {
	return Attendance{
		EmployeeID:    employeeID,
		Date:          day,
		BreakPeriods:  []BreakPeriod{},
		TotalHours:    decimal.Zero,
		OvertimeHours: decimal.Zero,
		Status:        StatusAbsent,
	}
}

// NewAbsence builds an explicitly absent day with no check-in.
func NewAbsence(employeeID string, day time.Time, reason *string) Attendance {
	a := NewDay(employeeID, day)
	a.MarkedAbsent = true
	a.AbsenceReason = reason
	return a
}

func (a *Attendance) ApplyCheckIn(p Punch, policy Policy) error {
	if a.HasCheckedIn() {
		return ErrAlreadyCheckedIn
	}
	a.CheckIn = &p
	a.reclassify(policy)
	return nil
}

func (a *Attendance) ApplyStartBreak(at time.Time) error {
	if !a.HasCheckedIn() {
		return ErrNoCheckInRecord
	}
	if a.HasCheckedOut() {
		return ErrAlreadyCheckedOut
	}
	if a.OnBreak() {
		return ErrBreakAlreadyActive
	}
	if at.Before(a.CheckIn.Time) {
		return ErrInvalidEventTime
	}
	if n := len(a.BreakPeriods); n > 0 && at.Before(*a.BreakPeriods[n-1].End) {
		return ErrInvalidEventTime
	}
	a.BreakPeriods = append(a.BreakPeriods, BreakPeriod{Start: at})
	return nil
}

func (a *Attendance) ApplyEndBreak(at time.Time) error {
	i := a.OpenBreak()
	if i < 0 {
		return ErrNoActiveBreak
	}
	if !at.After(a.BreakPeriods[i].Start) {
		return ErrInvalidEventTime
	}
	closeBreak(&a.BreakPeriods[i], at)
	return nil
}

// ApplyCheckOut records the check-out, closes a break left open at the
// check-out time and recomputes hours and status.
func (a *Attendance) ApplyCheckOut(p Punch, policy Policy) error {
	if !a.HasCheckedIn() {
		return ErrNoCheckInRecord
	}
	if a.HasCheckedOut() {
		return ErrAlreadyCheckedOut
	}
	if !p.Time.After(a.CheckIn.Time) {
		return ErrInvalidEventTime
	}

	if i := a.OpenBreak(); i >= 0 {
		end := p.Time
		if end.Before(a.BreakPeriods[i].Start) {
			end = a.BreakPeriods[i].Start
		}
		closeBreak(&a.BreakPeriods[i], end)
	}

	a.CheckOut = &p
	a.TotalHours = ToHours(WorkedDuration(a.CheckIn.Time, p.Time, a.BreakPeriods))
	a.OvertimeHours = policy.Overtime(a.TotalHours)
	a.reclassify(policy)
	return nil
}

func (a *Attendance) reclassify(policy Policy) {
	var in *time.Time
	if a.CheckIn != nil {
		in = &a.CheckIn.Time
	}
	a.Status = policy.Classify(a.Date, in, a.TotalHours, a.HasCheckedOut())
}

func closeBreak(b *BreakPeriod, end time.Time) {
	b.End = &end
	minutes := int(end.Sub(b.Start) / time.Minute)
	b.DurationMinutes = &minutes
}

// WorkedDuration is the span between in and out minus closed breaks. Each
// break is clipped to [in, out] first, and the result never goes below zero.
func WorkedDuration(in, out time.Time, breaks []BreakPeriod) time.Duration {
	if !out.After(in) {
		return 0
	}
	worked := out.Sub(in)
	for _, b := range breaks {
		if b.End == nil {
			continue
		}
		start, end := b.Start, *b.End
		if start.Before(in) {
			start = in
		}
		if end.After(out) {
			end = out
		}
		if end.After(start) {
			worked -= end.Sub(start)
		}
	}
	if worked < 0 {
		return 0
	}
	return worked
}

// ToHours converts d to decimal hours rounded to two places.
func ToHours(d time.Duration) decimal.Decimal {
	seconds := decimal.NewFromInt(int64(d / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).Round(hoursPrecision)
}
