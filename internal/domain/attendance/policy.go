package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy holds the thresholds used to classify a day and to split worked
// time into regular hours and overtime.
type Policy struct {
	Location         *time.Location
	WorkdayStart     time.Duration // offset from local midnight
	LateThreshold    time.Duration
	HalfDayHours     decimal.Decimal
	StandardDayHours decimal.Decimal
}

func DefaultPolicy() Policy {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	return Policy{
		Location:         loc,
		WorkdayStart:     8 * time.Hour,
		LateThreshold:    60 * time.Minute,
		HalfDayHours:     decimal.NewFromInt(4),
		StandardDayHours: decimal.NewFromInt(8),
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// DayOf returns local midnight of the calendar day t falls on.
func (p Policy) DayOf(t time.Time) time.Time {
	local := t.In(p.location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.location())
}

// NormalizeDate maps a civil date (any zone) onto local midnight of that date.
func (p Policy) NormalizeDate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, p.location())
}

// StartOfDay returns the canonical start-of-work boundary for day.
func (p Policy) StartOfDay(day time.Time) time.Time {
	return p.NormalizeDate(day).Add(p.WorkdayStart)
}

// Classify derives the day status. Precedence: absent, late, half-day, present.
// Until the day is checked out the worked hours are not final, so only
// late or present can be produced for an open day.
func (p Policy) Classify(day time.Time, checkIn *time.Time, totalHours decimal.Decimal, checkedOut bool) Status {
	if checkIn == nil {
		return StatusAbsent
	}
	if checkIn.After(p.StartOfDay(day).Add(p.LateThreshold)) {
		return StatusLate
	}
	if checkedOut && totalHours.LessThan(p.HalfDayHours) {
		return StatusHalfDay
	}
	return StatusPresent
}

// Overtime returns max(0, totalHours - StandardDayHours).
func (p Policy) Overtime(totalHours decimal.Decimal) decimal.Decimal {
	ot := totalHours.Sub(p.StandardDayHours)
	if ot.IsNegative() {
		return decimal.Zero
	}
	return ot
}
