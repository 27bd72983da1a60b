package attendance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_Classify(t *testing.T) {
	p := testPolicy()
	day := p.DayOf(at(12, 0))
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name       string
		checkIn    *time.Time
		hours      string
		checkedOut bool
		want       Status
	}{
		{"no check in", nil, "0", false, StatusAbsent},
		{"on time", ptr(at(8, 0)), "0", false, StatusPresent},
		{"exactly at threshold", ptr(at(9, 0)), "0", false, StatusPresent},
		{"past threshold", ptr(at(9, 1)), "0", false, StatusLate},
		{"late beats half day", ptr(at(10, 0)), "2", true, StatusLate},
		{"short day", ptr(at(8, 0)), "3.99", true, StatusHalfDay},
		{"four hours", ptr(at(8, 0)), "4", true, StatusPresent},
		{"short but still open", ptr(at(8, 0)), "0", false, StatusPresent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Classify(day, tt.checkIn, decimal.RequireFromString(tt.hours), tt.checkedOut)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_DayOf(t *testing.T) {
	p := testPolicy()

	// 18:30 UTC is already the next day in UTC+7.
	got := p.DayOf(time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, jakarta), got)
}

func TestPolicy_NormalizeDate(t *testing.T) {
	p := testPolicy()
	got := p.NormalizeDate(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, jakarta), got)
}

func TestIsSequenceError(t *testing.T) {
	assert.True(t, IsSequenceError(ErrAlreadyCheckedIn))
	assert.True(t, IsSequenceError(ErrNoActiveBreak))
	assert.False(t, IsSequenceError(ErrAttendanceNotFound))
}
