package apperror

import (
	"errors"
	"net/http"
)

type Error struct {
	Code       string
	Message    string
	StatusCode int
	Internal   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Internal
}

var (
	ErrNotFound = &Error{
		Code:       "not_found",
		Message:    "The requested resource was not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &Error{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrGenerationDisabled = &Error{
		Code:       "generation_disabled",
		Message:    "Thumbnail generation is disabled for this event",
		StatusCode: http.StatusConflict,
	}

	ErrUnsupportedType = &Error{
		Code:       "unsupported_type",
		Message:    "This file type cannot be converted to a thumbnail",
		StatusCode: http.StatusUnsupportedMediaType,
	}

	ErrQuotaExhausted = &Error{
		Code:       "quota_exhausted",
		Message:    "The thumbnail quota for this tenant is exhausted",
		StatusCode: http.StatusPaymentRequired,
	}

	ErrInvalidSignature = &Error{
		Code:       "invalid_signature",
		Message:    "Callback signature verification failed",
		StatusCode: http.StatusBadRequest,
	}

	ErrJobNotFound = &Error{
		Code:       "job_not_found",
		Message:    "No conversion job matches this callback",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternal = &Error{
		Code:       "internal_error",
		Message:    "An unexpected error occurred. Please try again later",
		StatusCode: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &Error{
		Code:       "service_unavailable",
		Message:    "Service temporarily unavailable. Please try again later",
		StatusCode: http.StatusServiceUnavailable,
	}

	ErrConverterUnavailable = &Error{
		Code:       "converter_unavailable",
		Message:    "The conversion service could not be reached. Please try again later",
		StatusCode: http.StatusBadGateway,
	}
)

func New(code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Wrap(err error, appErr *Error) *Error {
	return &Error{
		Code:       appErr.Code,
		Message:    appErr.Message,
		StatusCode: appErr.StatusCode,
		Internal:   err,
	}
}

func WrapWithMessage(err error, code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

func Is(err error, target *Error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func SafeMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Message
}

func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}
