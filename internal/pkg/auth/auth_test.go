package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models"
)

func newTestJWT() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "edutransit.test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWT()
	user := &models.User{ID: 7, Username: "driver1", Role: models.RoleDriver}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
	assert.Equal(t, int64(86400), pair.RefreshExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "driver1", claims.Username)
	assert.Equal(t, models.RoleDriver, claims.Role)
	assert.Equal(t, "edutransit.test", claims.Issuer)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestJWT()
	issued := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokenPair(&models.User{ID: 1, Username: "a", Role: models.RoleStudent})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	pair, err := newTestJWT().GenerateTokenPair(&models.User{ID: 1, Username: "a", Role: models.RoleStudent})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour})
	_, err = other.ValidateAndExtractClaims(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAndExtractClaimsRequiresRole(t *testing.T) {
	svc := newTestJWT()
	pair, err := svc.GenerateTokenPair(&models.User{ID: 3, Username: "norole"})
	require.NoError(t, err)

	_, err = svc.ValidateAndExtractClaims(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = ExtractBearerToken("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", tok)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestGenerateRandomPassword(t *testing.T) {
	pw, err := GenerateRandomPassword(GeneratedPasswordLength)
	require.NoError(t, err)
	assert.Len(t, pw, GeneratedPasswordLength)
	for _, r := range pw {
		assert.True(t, strings.ContainsRune(passwordAlphabet, r), "unexpected rune %q", r)
	}

	_, err = GenerateRandomPassword(0)
	assert.Error(t, err)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, otp, OTPLength)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}
