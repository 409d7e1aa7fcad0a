package qrtoken

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSignUnsignRoundTrip(t *testing.T) {
	issued := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := NewSigner("secret", "salt").WithClock(fixedNow(issued))

	token := s.Sign("42")
	parts := strings.Split(token, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "42", parts[0])
	assert.NotContains(t, parts[2], "=")

	value, err := s.WithClock(fixedNow(issued.Add(20*time.Second))).Unsign(token, 35*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "42", value)
}

func TestUnsignExpired(t *testing.T) {
	issued := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := NewSigner("secret", "salt").WithClock(fixedNow(issued))
	token := s.Sign("7")

	_, err := s.WithClock(fixedNow(issued.Add(36*time.Second))).Unsign(token, 35*time.Second)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = s.WithClock(fixedNow(issued.Add(35*time.Second))).Unsign(token, 35*time.Second)
	assert.NoError(t, err)
}

func TestUnsignTampered(t *testing.T) {
	s := NewSigner("secret", "salt")
	token := s.Sign("7")

	cases := map[string]string{
		"value changed":     "8" + token[1:],
		"signature changed": token[:len(token)-1] + flip(token[len(token)-1]),
		"no separators":     "garbage",
		"empty":             "",
		"missing timestamp": "7:" + s.signature("7"),
	}
	for name, tampered := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Unsign(tampered, 35*time.Second)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestUnsignOtherKey(t *testing.T) {
	token := NewSigner("secret", "salt").Sign("7")

	_, err := NewSigner("other", "salt").Unsign(token, 0)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewSigner("secret", "other").Unsign(token, 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestBase62(t *testing.T) {
	for _, n := range []int64{0, 1, 61, 62, 1741593600, -5} {
		got, ok := decodeBase62(encodeBase62(n))
		require.True(t, ok)
		assert.Equal(t, n, got)
	}
	assert.Equal(t, "Z", encodeBase62(35))
	assert.Equal(t, "10", encodeBase62(62))

	_, ok := decodeBase62("a$")
	assert.False(t, ok)
}

func flip(c byte) string {
	if c == 'A' {
		return "B"
	}
	return "A"
}
