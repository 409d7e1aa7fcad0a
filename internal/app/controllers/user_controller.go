package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/middleware"
)

// UserController serves the caller's own profile
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile retrieves the authenticated user's profile
// @Summary Get current user profile
// @Description Returns the profile with the resolved organization name, the class in charge and, for parents, the children
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserProfile} "Profile retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/me/ [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	profile, err := c.userService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, profile)
}

// UpdateProfile updates the authenticated user's profile
// @Summary Update current user profile
// @Description Updates names, contact details, push token and schedule. Absent fields are left unchanged.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.UserProfile} "Profile updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/me/ [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := middleware.MustUserID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("Invalid profile update payload")
		middleware.RespondBindingError(ctx, err, "Invalid profile data")
		return
	}

	profile, err := c.userService.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to update profile")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Msg("Profile updated")
	respondOK(ctx, profile)
}
