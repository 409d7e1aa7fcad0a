// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user by username or email and returns access and refresh tokens with the profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or blocked account"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /login/ [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		middleware.RespondBindingError(ctx, err, "Invalid login request")
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("username", req.Username).Msg("User logged in successfully")
	respondOK(ctx, resp)
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Rotates a valid refresh token and returns a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse} "Token refreshed successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid, expired or revoked refresh token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /token/refresh/ [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid refresh token request payload")
		middleware.RespondBindingError(ctx, err, "Invalid refresh request")
		return
	}

	tokens, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, tokens)
}

// Logout revokes every refresh token of the caller
// @Summary Logout
// @Description Revokes all refresh tokens of the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Logged out"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /logout/ [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), userID); err != nil {
		c.logger.Error().Err(err).Int64("userID", userID).Msg("Logout failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondMessage(ctx, http.StatusOK, "Logged out successfully")
}

// SendOTP starts a password reset
// @Summary Send password reset OTP
// @Description Creates a 6-digit one-time code for the account and emails it. The code is valid for 10 minutes.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SendOTPRequest true "Account email"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "OTP sent"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "Unknown email"
// @Failure 500 {object} dto.ErrorResponse "Email could not be sent"
// @Router /password-reset/send-otp/ [post]
func (c *AuthController) SendOTP(ctx *gin.Context) {
	var req dto.SendOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid request")
		return
	}

	if err := c.authService.SendOTP(ctx.Request.Context(), &req); err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Failed to send password reset OTP")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondMessage(ctx, http.StatusOK, services.MsgOTPSent)
}

// VerifyOTP checks a password reset code without consuming it
// @Summary Verify password reset OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Email and code"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "OTP verified"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired OTP"
// @Router /password-reset/verify-otp/ [post]
func (c *AuthController) VerifyOTP(ctx *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid request")
		return
	}

	if err := c.authService.VerifyOTP(ctx.Request.Context(), &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondMessage(ctx, http.StatusOK, services.MsgOTPVerified)
}

// ResetPassword sets a new password using a valid code
// @Summary Reset password with OTP
// @Description Sets the new password, deletes the code and revokes the account's refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordOTPRequest true "Email, code and new password"
// @Success 200 {object} dto.APIResponse{data=dto.MessageResponse} "Password reset"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired OTP"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /password-reset/reset-with-otp/ [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err, "Invalid request")
		return
	}

	if err := c.authService.ResetPassword(ctx.Request.Context(), &req); err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Password reset failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("email", req.Email).Msg("Password reset with OTP")
	respondMessage(ctx, http.StatusOK, services.MsgPasswordReset)
}
