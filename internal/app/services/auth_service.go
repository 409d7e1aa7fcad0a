package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	"github.com/yigit/edutransit/internal/pkg/auth"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/email"
)

// Password reset messages
const (
	MsgUnknownEmail   = "User with this email does not exist."
	MsgOTPSent        = "OTP sent to email."
	MsgOTPVerified    = "OTP verified."
	MsgInvalidOTP     = "Invalid or expired OTP."
	MsgPasswordReset  = "Password reset successfully."
	MsgAccountBlocked = "Blocked or Contact Admin"
	otpEmailSubject   = "Password Reset OTP"
)

// AuthService handles authentication and password reset
type AuthService struct {
	users      UserStore
	tokens     RefreshTokenStore
	otps       OTPStore
	profiles   profileBuilder
	jwtService *auth.JWTService
	dispatcher *Dispatcher
	clock      clock.Clock
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	stores Stores,
	jwtService *auth.JWTService,
	dispatcher *Dispatcher,
	defaultOrganization string,
	clk clock.Clock,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:      stores.Users,
		tokens:     stores.RefreshTokens,
		otps:       stores.OTPs,
		profiles:   profileBuilder{users: stores.Users, grades: stores.Grades, defaultOrganization: defaultOrganization},
		jwtService: jwtService,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

// Login authenticates a user by username, or by email when the identifier contains '@'
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidationFailed)
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, identifier)
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.Wrap(apperrors.ErrAccountDisabled, MsgAccountBlocked)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	}

	token, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.build(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return &dto.AuthResponse{Token: *token, User: profile}, nil
}

// RefreshToken rotates a refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, expiryDate, err := s.tokens.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenNotFound, apperrors.ErrTokenExpired, apperrors.ErrTokenRevoked) {
			return nil, err
		}
		return nil, fmt.Errorf("token validation error: %w", err)
	}

	if expiryDate.Before(s.clock.Now()) {
		_ = s.tokens.RevokeToken(ctx, refreshToken)
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Wrap(apperrors.ErrAccountDisabled, MsgAccountBlocked)
	}

	// the old token is revoked so it cannot be replayed
	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.generateTokenResponse(ctx, user)
}

// Logout revokes every refresh token of the user
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("error revoking tokens: %w", err)
	}
	return nil
}

func (s *AuthService) generateTokenResponse(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := s.tokens.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}

// SendOTP creates or replaces the user's reset code and emails it
func (s *AuthService) SendOTP(ctx context.Context, req *dto.SendOTPRequest) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewResourceNotFoundError(MsgUnknownEmail)
		}
		return fmt.Errorf("error finding user: %w", err)
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return fmt.Errorf("error generating otp: %w", err)
	}

	otp := &models.PasswordResetOTP{UserID: user.ID, OTP: code, CreatedAt: s.clock.Now()}
	if err := s.otps.Upsert(ctx, otp); err != nil {
		return fmt.Errorf("error storing otp: %w", err)
	}

	msg := email.Message{
		To:      []string{user.Email},
		Subject: otpEmailSubject,
		Text:    "Your OTP for password reset is: " + code,
	}
	if err := s.dispatcher.Email(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Password reset OTP sent")
	return nil
}

// checkOTP returns the user whose current code matches, or ErrInvalidOTP
func (s *AuthService) checkOTP(ctx context.Context, address, code string) (*models.User, error) {
	invalid := apperrors.Wrap(apperrors.ErrInvalidOTP, MsgInvalidOTP)

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	otp, err := s.otps.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("error finding otp: %w", err)
	}
	if otp.OTP != code || !otp.IsValid(s.clock.Now()) {
		return nil, invalid
	}
	return user, nil
}

// VerifyOTP checks a reset code without consuming it
func (s *AuthService) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) error {
	_, err := s.checkOTP(ctx, req.Email, req.OTP)
	return err
}

// ResetPassword sets a new password with a valid code and consumes the code
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordOTPRequest) error {
	user, err := s.checkOTP(ctx, req.Email, req.OTP)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if err := s.otps.DeleteByUserID(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to delete used OTP")
	}
	if err := s.tokens.RevokeAllUserTokens(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to revoke tokens after password reset")
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Password reset")
	return nil
}
