package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Order matters: the first matching sentinel wins.
var errorMappings = []errorMapping{
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrBusNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Bus not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrAccountDisabled, http.StatusBadRequest, dto.ErrorCodeAccountBlocked, "Blocked or Contact Admin"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrInvalidOTP, http.StatusBadRequest, dto.ErrorCodeInvalidOTP, "Invalid or expired OTP."},

	{apperrors.ErrNoBusAssigned, http.StatusBadRequest, dto.ErrorCodeNoBusAssigned, "No bus assigned"},
	{apperrors.ErrNoActiveTrip, http.StatusBadRequest, dto.ErrorCodeNoActiveTrip, "No active trip for this bus."},
	{apperrors.ErrQRExpired, http.StatusBadRequest, dto.ErrorCodeQRExpired, "QR Code has expired. Please ask driver to refresh."},
	{apperrors.ErrQRInvalid, http.StatusBadRequest, dto.ErrorCodeQRInvalid, "Invalid QR Code."},
	{apperrors.ErrNotAssignedBus, http.StatusBadRequest, dto.ErrorCodeNotAssignedBus, "You are not assigned to this bus."},
	{apperrors.ErrMissingLocation, http.StatusBadRequest, dto.ErrorCodeMissingLocation, "Missing coordinates"},

	{apperrors.ErrUsernameAlreadyExists, http.StatusBadRequest, dto.ErrorCodeResourceAlreadyExists, "Username already exists"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},

	{apperrors.ErrDeliveryFailed, http.StatusInternalServerError, dto.ErrorCodeExternalServiceError, "Failed to send email. Please try again later."},
}

// HandleAPIError maps service errors to the standard error envelope.
// A CustomError message in the chain replaces the default message.
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			detail := dto.NewErrorDetail(m.code, apperrors.Message(err, m.message))
			c.JSON(m.status, dto.NewErrorResponse(detail))
			return
		}
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Unhandled error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
	))
}

// RespondBadRequest writes a 400 validation error with a message and optional details
func RespondBadRequest(c *gin.Context, message string, details interface{}) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message)
	if details != nil {
		detail = detail.WithDetails(details)
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}

// RespondBindingError writes a 400 for a failed request bind
func RespondBindingError(c *gin.Context, err error, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.NewBindingErrorDetail(err, message)))
}
