// Package qrtoken signs short-lived boarding tokens of the form
// "<value>:<base62 unix timestamp>:<base64url HMAC-SHA256>".
package qrtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

const separator = ":"

var (
	// ErrInvalid is returned for malformed tokens and signature mismatches.
	ErrInvalid = errors.New("qrtoken: invalid signature")
	// ErrExpired is returned for a correctly signed token older than the allowed age.
	ErrExpired = errors.New("qrtoken: signature expired")
)

// Signer issues and verifies timestamped tokens.
type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner derives the HMAC key from secret and salt.
func NewSigner(secret, salt string) *Signer {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write([]byte("signer"))
	h.Write([]byte(secret))
	return &Signer{key: h.Sum(nil), now: time.Now}
}

// WithClock returns a copy of the signer that reads the time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	return &Signer{key: s.key, now: now}
}

// Sign appends the current timestamp and a signature to value.
func (s *Signer) Sign(value string) string {
	payload := value + separator + encodeBase62(s.now().Unix())
	return payload + separator + s.signature(payload)
}

// Unsign verifies token and returns the original value.
// maxAge <= 0 disables the age check.
func (s *Signer) Unsign(token string, maxAge time.Duration) (string, error) {
	sigIdx := strings.LastIndex(token, separator)
	if sigIdx < 0 {
		return "", ErrInvalid
	}
	payload, sig := token[:sigIdx], token[sigIdx+1:]
	if subtle.ConstantTimeCompare([]byte(sig), []byte(s.signature(payload))) != 1 {
		return "", ErrInvalid
	}

	tsIdx := strings.LastIndex(payload, separator)
	if tsIdx < 0 {
		return "", ErrInvalid
	}
	value, encodedTS := payload[:tsIdx], payload[tsIdx+1:]
	ts, ok := decodeBase62(encodedTS)
	if !ok {
		return "", ErrInvalid
	}

	if maxAge > 0 {
		age := s.now().Sub(time.Unix(ts, 0))
		if age > maxAge {
			return "", ErrExpired
		}
	}
	return value, nil
}

func (s *Signer) signature(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
