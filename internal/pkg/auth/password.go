package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the hashing cost for stored passwords
const BcryptCost = 12

const (
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits           = "0123456789"

	// GeneratedPasswordLength is the length of passwords issued to new members
	GeneratedPasswordLength = 10
	// OTPLength is the number of digits in a password reset code
	OTPLength = 6
)

// HashPassword hashes a plain-text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a bcrypt hash with a plain-text password
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// GenerateRandomPassword returns a random alphanumeric password of length n
func GenerateRandomPassword(n int) (string, error) {
	return randomString(passwordAlphabet, n)
}

// GenerateOTP returns a random 6-digit code
func GenerateOTP() (string, error) {
	return randomString(digits, OTPLength)
}

func randomString(alphabet string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive, got %d", n)
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random value: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
