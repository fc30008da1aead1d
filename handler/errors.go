package handler

import (
	"errors"
	"net/http"

	models "storefront/model"
)

// statusFor maps service errors onto HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidQuantity), errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceErr hides the detail of 5xx errors from the client and logs it instead.
func (h *Handler) writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg := "internal error"
		if errors.Is(err, models.ErrOrderCreationFailed) {
			msg = models.ErrOrderCreationFailed.Error()
		}
		writeErr(w, code, msg)
		return
	}
	writeErr(w, code, err.Error())
}
