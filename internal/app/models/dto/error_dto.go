package dto

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeAccountBlocked     ErrorCode = "AUTH_002"
	ErrorCodeInvalidOTP         ErrorCode = "AUTH_003"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeTokenNotFound      ErrorCode = "AUTH_007"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_008"
	ErrorCodeForbidden          ErrorCode = "AUTH_009"

	// Resource errors
	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"
	ErrorCodeConflict              ErrorCode = "RES_004"

	// Trip and boarding errors
	ErrorCodeNoBusAssigned   ErrorCode = "BUS_001"
	ErrorCodeNoActiveTrip    ErrorCode = "BUS_002"
	ErrorCodeQRExpired       ErrorCode = "BUS_003"
	ErrorCodeQRInvalid       ErrorCode = "BUS_004"
	ErrorCodeNotAssignedBus  ErrorCode = "BUS_005"
	ErrorCodeMissingLocation ErrorCode = "BUS_006"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	ErrorCodeBadRequest       ErrorCode = "VAL_002"

	// Server errors
	ErrorCodeInternalServer       ErrorCode = "SRV_001"
	ErrorCodeDatabaseError        ErrorCode = "SRV_002"
	ErrorCodeExternalServiceError ErrorCode = "SRV_003"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityInfo     ErrorSeverity = "INFO"
	ErrorSeverityWarning  ErrorSeverity = "WARNING"
	ErrorSeverityError    ErrorSeverity = "ERROR"
	ErrorSeverityCritical ErrorSeverity = "CRITICAL"
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code     ErrorCode     `json:"code" example:"BUS_002"`
	Message  string        `json:"message" example:"No active trip for this bus."`
	Field    string        `json:"field,omitempty" example:"qr_token"`
	Severity ErrorSeverity `json:"severity" example:"ERROR"`
	Details  interface{}   `json:"details,omitempty"`
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewErrorDetail creates a new error detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:     code,
		Message:  message,
		Severity: ErrorSeverityError,
	}
}

// WithField adds a field name to the error detail
func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error
func (e *ErrorDetail) WithSeverity(severity ErrorSeverity) *ErrorDetail {
	e.Severity = severity
	return e
}

// WithDetails adds additional details to the error
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(errorDetail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     errorDetail,
		Timestamp: time.Now(),
	}
}

// NewBindingErrorDetail turns a gin binding error into a validation error
// detail, naming the first offending field when the validator reports one.
func NewBindingErrorDetail(err error, message string) *ErrorDetail {
	detail := NewErrorDetail(ErrorCodeValidationFailed, message)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		detail.WithField(fe.Field())
		switch fe.Tag() {
		case "required":
			return detail.WithDetails(fe.Field() + " is required")
		case "email":
			return detail.WithDetails(fe.Field() + " must be a valid email address")
		case "oneof":
			return detail.WithDetails(fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "min", "max", "len":
			return detail.WithDetails(fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
		return detail.WithDetails(fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return detail.WithDetails(err.Error())
}
