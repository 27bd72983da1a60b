package attendance

import (
	"context"
)

// AttendanceService is the time-accounting ledger. Mutations always act on
// the calling employee's current day.
type AttendanceService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)
	StartBreak(ctx context.Context, req BreakRequest) (AttendanceResponse, error)
	EndBreak(ctx context.Context, req BreakRequest) (AttendanceResponse, error)

	// MarkAbsent records an explicit absence for a day that has no entry yet.
	MarkAbsent(ctx context.Context, req MarkAbsentRequest) (AttendanceResponse, error)

	GetDay(ctx context.Context, employeeID string, date string) (AttendanceResponse, error)
	ListRange(ctx context.Context, filter DateRangeFilter) (ListAttendanceResponse, error)
	GetTodayStatus(ctx context.Context, employeeID string) (TodayStatusResponse, error)
}
