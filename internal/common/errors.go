package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes. The three intake rejections stay distinct so the transport
// can map them to different HTTP statuses.
const (
	CodeValidation       = "VALIDATION"
	CodeBadExtension     = "VALIDATION_EXTENSION"
	CodeBadContentType   = "VALIDATION_CONTENT_TYPE"
	CodeTooLarge         = "VALIDATION_TOO_LARGE"
	CodeBadSignature     = "VALIDATION_SIGNATURE"
	CodeNotFound         = "NOT_FOUND"
	CodeStageExecution   = "STAGE_EXECUTION"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeConflict         = "CONFLICT"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewStageError(stage string, cause error) *AppError {
	return &AppError{Code: CodeStageExecution, Message: stage + " stage failed", Cause: cause}
}

func NewStoreUnavailableError(cause error) *AppError {
	return &AppError{Code: CodeStoreUnavailable, Message: "job store unavailable", Cause: cause}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf extracts the AppError code, or "" for foreign errors.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeValidation, CodeBadExtension, CodeBadContentType, CodeTooLarge, CodeBadSignature:
		return true
	}
	return false
}

func IsStoreUnavailable(err error) bool {
	return CodeOf(err) == CodeStoreUnavailable
}

// HTTP error helpers
func httpStatusFor(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeBadExtension, CodeBadContentType, CodeBadSignature:
		return http.StatusUnsupportedMediaType
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTPError maps an application error onto an echo.HTTPError for the
// transport edge. Foreign errors become opaque 500s.
func ToHTTPError(err error) *echo.HTTPError {
	var ae *AppError
	if errors.As(err, &ae) {
		return echo.NewHTTPError(httpStatusFor(ae.Code), ae.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
