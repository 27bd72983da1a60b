package attendance

import "errors"

// Attendance domain errors
var (
	// Sequence errors
	ErrAlreadyCheckedIn   = errors.New("you have already checked in today")
	ErrNoCheckInRecord    = errors.New("you have not checked in today")
	ErrAlreadyCheckedOut  = errors.New("you have already checked out today")
	ErrBreakAlreadyActive = errors.New("a break is already in progress")
	ErrNoActiveBreak      = errors.New("there is no active break to end")
	ErrInvalidEventTime   = errors.New("event time must be after the previous event")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAttendanceExists   = errors.New("attendance record already exists for this date")
	ErrInvalidDateRange   = errors.New("invalid date range")
)

var sequenceErrors = []error{
	ErrAlreadyCheckedIn,
	ErrNoCheckInRecord,
	ErrAlreadyCheckedOut,
	ErrBreakAlreadyActive,
	ErrNoActiveBreak,
	ErrInvalidEventTime,
}

// IsSequenceError reports whether err is a client-correctable ordering error
// such as checking out before checking in.
func IsSequenceError(err error) bool {
	for _, target := range sequenceErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
