package dto

import "github.com/yigit/edutransit/internal/app/models"

// LoginRequest accepts a username or an email in the username field.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"access"`
	TokenType             string `json:"token_type" example:"Bearer"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refresh_expires_in,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh" binding:"required"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserProfile  `json:"user"`
}

// ChildSummary is a child as seen on a parent's profile.
type ChildSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BusID     *int64 `json:"bus_id"`
}

// UserProfile is the profile view of an account.
type UserProfile struct {
	ID                       int64            `json:"id"`
	Username                 string           `json:"username"`
	Email                    string           `json:"email"`
	FirstName                string           `json:"first_name"`
	LastName                 string           `json:"last_name"`
	Phone                    *string          `json:"phone"`
	Role                     models.Role      `json:"role"`
	BusID                    *int64           `json:"bus_id"`
	Children                 []ChildSummary   `json:"children"`
	MorningArrivalTime       models.TimeOfDay `json:"morning_arrival_time" swaggertype:"string"`
	EveningDepartureTime     models.TimeOfDay `json:"evening_departure_time" swaggertype:"string"`
	PushToken                *string          `json:"push_token"`
	ResolvedOrganizationName string           `json:"resolved_organization_name"`
	ClassInChargeName        string           `json:"class_in_charge_name"`
}

// UpdateProfileRequest lists the fields a user may change on their own profile.
type UpdateProfileRequest struct {
	FirstName            *string           `json:"first_name"`
	LastName             *string           `json:"last_name"`
	Email                *string           `json:"email" binding:"omitempty,email"`
	Phone                *string           `json:"phone" binding:"omitempty,phone"`
	PushToken            *string           `json:"push_token"`
	OrganizationName     *string           `json:"organization_name"`
	MorningArrivalTime   *models.TimeOfDay `json:"morning_arrival_time" swaggertype:"string"`
	EveningDepartureTime *models.TimeOfDay `json:"evening_departure_time" swaggertype:"string"`
}

// SendOTPRequest starts a password reset.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOTPRequest checks a reset code.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// ResetPasswordOTPRequest sets a new password with a reset code.
type ResetPasswordOTPRequest struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required,len=6"`
	Password string `json:"password" binding:"required,min=8"`
}
