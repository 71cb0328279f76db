package booking

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, user-facing rejection code. Callers present the remedy
// for the specific code; the engine never silently fixes a request.
type Code string

const (
	CodeNotAWorkingDay                 Code = "not_a_working_day"
	CodeOutsideWorkingHours            Code = "outside_working_hours"
	CodeMisalignedGrid                 Code = "misaligned_grid"
	CodeMisalignedExtendedServiceStart Code = "misaligned_extended_service_start"
	CodeDateBlocked                    Code = "date_blocked"
	CodeSlotBlocked                    Code = "slot_blocked"
	CodeInVacationPeriod               Code = "in_vacation_period"
	CodeSlotTaken                      Code = "slot_taken"
	CodeInvalidServiceType             Code = "invalid_service_type"
	CodeStorageUnavailable             Code = "storage_unavailable"
	CodeAppointmentNotFound            Code = "appointment_not_found"
)

// ErrBadRequest marks malformed caller input (unparseable date or time,
// unknown status). Distinct from rejections: the request never reached the
// engine's rules.
var ErrBadRequest = errors.New("booking: bad request")

// Rejection is a deterministic engine decision. Rejections are never
// retried.
type Rejection struct {
	Code    Code
	Message string
	cause   error
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return string(r.Code)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

func (r *Rejection) Unwrap() error {
	return r.cause
}

// Reject builds a rejection with the given code and message.
func Reject(code Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// rejectWithCause wraps a transient failure once retries are exhausted.
func rejectWithCause(code Code, cause error, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// RejectionFrom extracts a Rejection from an error chain.
func RejectionFrom(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// HTTPStatus maps a rejection code to the response status used by the API.
func HTTPStatus(code Code) int {
	switch code {
	case CodeSlotTaken:
		return http.StatusConflict
	case CodeAppointmentNotFound:
		return http.StatusNotFound
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case CodeInvalidServiceType:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
