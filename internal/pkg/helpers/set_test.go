package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressSetDeduplicatesCaseInsensitively(t *testing.T) {
	s := NewAddressSet()
	s.Add("Parent@School.edu")
	s.Add(" parent@school.edu ")
	s.Add("")
	s.Add("teacher@school.edu")

	assert.Equal(t, []string{"Parent@School.edu", "teacher@school.edu"}, s.Items())
	assert.Equal(t, 2, s.Len())
}

func TestTokenSetIsCaseSensitive(t *testing.T) {
	s := NewTokenSet()
	s.Add("ExponentPushToken[abc]")
	s.Add("ExponentPushToken[ABC]")
	s.Add("ExponentPushToken[abc]")

	assert.Equal(t, 2, s.Len())
}
