// Package handlers exposes the booking engine over HTTP. Rule rejections
// carry a stable error_code so clients can present the right remedy.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ginecare/booking-platform/internal/booking"
	"github.com/ginecare/booking-platform/pkg/logging"
)

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeEngineError maps engine errors onto the API surface: rejections keep
// their code, malformed input is a 400, anything else is an opaque 500.
func writeEngineError(w http.ResponseWriter, logger *logging.Logger, err error) {
	if r, ok := booking.RejectionFrom(err); ok {
		writeJSON(w, booking.HTTPStatus(r.Code), errorResponse{
			ErrorCode: string(r.Code),
			Message:   r.Message,
		})
		return
	}
	if errors.Is(err, booking.ErrBadRequest) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			ErrorCode: "bad_request",
			Message:   err.Error(),
		})
		return
	}
	logger.Error("unhandled booking error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		ErrorCode: "internal_error",
		Message:   "internal error",
	})
}
