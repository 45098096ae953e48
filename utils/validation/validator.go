package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// EmailRegex is a simple email validation regex
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError converts the first validation error to a
// user-friendly message
func FormatValidationError(err error) string {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		switch e.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", e.Field())
		case "email":
			return "Invalid email format"
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
		default:
			return fmt.Sprintf("%s is invalid", e.Field())
		}
	}
	return err.Error()
}

// ValidateEmail checks if an email is valid
func ValidateEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	return EmailRegex.MatchString(email)
}

// SanitizeString trims whitespace and strips control characters
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}
