package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username string `validate:"required,username"`
	Phone    string `validate:"phone"`
}

func TestRegisteredRules(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	tests := []struct {
		name  string
		in    sample
		valid bool
	}{
		{"plain", sample{Username: "driver_01"}, true},
		{"email as username", sample{Username: "jane.doe@school.edu"}, true},
		{"space in username", sample{Username: "jane doe"}, false},
		{"phone ok", sample{Username: "a", Phone: "+1 555-0100"}, true},
		{"phone letters", sample{Username: "a", Phone: "call me"}, false},
		{"phone too short", sample{Username: "a", Phone: "123"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStringValidation(t *testing.T) {
	assert.False(t, NewStringValidation("   ").Validate())
	assert.True(t, NewStringValidation("").WithRequired(false).Validate())
	assert.False(t, NewStringValidation("abcdef").WithMaxLength(3).Validate())
	assert.False(t, NewStringValidation("ab").WithMinLength(3).Validate())
	assert.True(t, NewStringValidation(" Bus late ").WithMaxLength(8).Validate())
}
