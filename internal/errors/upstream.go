package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/target/recon-console/internal/gateway"
)

// MapUpstreamError maps gateway and context errors to AppError instances:
//   - context deadline → Timeout, context canceled → Canceled
//   - *gateway.RequestError → Upstream with the generic message
//   - *gateway.StatusError 401/403 → Unauthorized/Forbidden
//   - other *gateway.StatusError → the backend's message verbatim when present
//
// AppErrors pass through unchanged; anything else becomes Internal.
func MapUpstreamError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: GenericFailureMessage, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}

	var se *gateway.StatusError
	if errors.As(err, &se) {
		return mapStatusError(se)
	}

	var re *gateway.RequestError
	if errors.As(err, &re) {
		return &AppError{Code: ErrCodeUpstream, Message: GenericFailureMessage, Cause: err}
	}

	return &AppError{Code: ErrCodeInternal, Message: "Something went wrong. Please try again.", Cause: err}
}

func mapStatusError(se *gateway.StatusError) error {
	switch se.Status {
	case http.StatusUnauthorized:
		return &AppError{Code: ErrCodeUnauthorized, Message: "Your session has expired. Please sign in again.", Cause: se}
	case http.StatusForbidden:
		return &AppError{Code: ErrCodeForbidden, Message: "You do not have access to this resource.", Cause: se}
	}

	code := ErrCodeUpstream
	switch se.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = ErrCodeValidation
	case http.StatusNotFound:
		code = ErrCodeNotFound
	case http.StatusConflict:
		code = ErrCodeConflict
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		code = ErrCodeTimeout
	}

	msg := se.Message
	if msg == "" {
		if code == ErrCodeNotFound {
			msg = "Resource not found."
		} else {
			msg = fmt.Sprintf("The service returned an error (status %d).", se.Status)
		}
	}
	return &AppError{Code: code, Message: msg, Cause: se}
}
