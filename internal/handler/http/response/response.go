package response

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Meta    *Meta        `json:"meta,omitempty"`
}

type ErrorDetail struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Meta describes one page of a listing.
type Meta struct {
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	TotalItems int64  `json:"total_items,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
	Showing    string `json:"showing,omitempty"`
}

// Code is the machine-readable error identifier clients switch on.
type Code string

const (
	CodeBadRequest     Code = "BAD_REQUEST"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL_SERVER_ERROR"
	codeEncodingFailed Code = "ENCODING_ERROR"

	// Ledger
	CodeAttendanceSequence Code = "ATTENDANCE_SEQUENCE_ERROR"
	CodeAttendanceNotFound Code = "ATTENDANCE_NOT_FOUND"
	CodeAttendanceExists   Code = "ATTENDANCE_EXISTS"
	CodeEmployeeNotFound   Code = "EMPLOYEE_NOT_FOUND"
	CodeEmployeeNotActive  Code = "EMPLOYEE_NOT_ACTIVE"

	// Payroll
	CodePayslipNotFound         Code = "PAYSLIP_NOT_FOUND"
	CodeDuplicatePayrollPeriod  Code = "DUPLICATE_PAYROLL_PERIOD"
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CodePayrollPrecondition     Code = "PAYROLL_PRECONDITION_FAILED"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_ = json.NewEncoder(w).Encode(Response{
			Error: &ErrorDetail{Code: codeEncodingFailed, Message: "Failed to encode response"},
		})
	}
}

func Success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func SuccessWithMessage(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// Paginated writes one page of items with its paging metadata.
func Paginated(w http.ResponseWriter, items interface{}, meta Meta) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: items, Meta: &meta})
}

// Fail writes an error envelope.
func Fail(w http.ResponseWriter, status int, code Code, message string, details map[string]string) {
	writeJSON(w, status, Response{
		Error: &ErrorDetail{Code: code, Message: message, Details: details},
	})
}

func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	Fail(w, http.StatusBadRequest, CodeBadRequest, message, details)
}

func ValidationError(w http.ResponseWriter, details map[string]string) {
	Fail(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", details)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Fail(w, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	Fail(w, http.StatusForbidden, CodeForbidden, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Fail(w, http.StatusInternalServerError, CodeInternal, message, nil)
}
