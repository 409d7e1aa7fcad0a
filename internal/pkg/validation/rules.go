package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Letters, digits and @.+-_ only
	UsernamePattern = `^[\w.@+\-]+$`

	// Optional leading plus, then digits, spaces, dashes or parentheses
	PhonePattern = `^\+?[0-9 ()\-]{7,20}$`

	UsernameMaxLength = 150
	TitleMaxLength    = 200
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Username *regexp.Regexp
	Phone    *regexp.Regexp
}{
	Username: regexp.MustCompile(UsernamePattern),
	Phone:    regexp.MustCompile(PhonePattern),
}

// Register adds the custom tags used in request DTOs to v
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool {
			return NewStringValidation(fl.Field().String()).
				WithMaxLength(UsernameMaxLength).
				WithPattern(CompiledPatterns.Username).
				Validate()
		},
		"phone": func(fl validator.FieldLevel) bool {
			return NewStringValidation(fl.Field().String()).
				WithRequired(false).
				WithPattern(CompiledPatterns.Phone).
				Validate()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// StringValidation checks a single string value
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation. Surrounding whitespace is ignored.
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    strings.TrimSpace(value),
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return !v.Required
	}

	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}

	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}

	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}

	return true
}
