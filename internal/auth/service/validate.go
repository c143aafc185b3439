package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MinPasswordLength = 6
	passwordSpecials  = `!@#$%^&*(),.?":{}|<>`
)

var (
	otpPattern = regexp.MustCompile(`^[0-9]{6}$`)
	lower      = cases.Lower(language.Und)
	validate   = newValidator()
)

// NormalizeEmail trims and lower-cases an address. All lookups and unique
// constraints use the normalised form.
func NormalizeEmail(email string) string {
	return lower.String(strings.TrimSpace(email))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordPolicyError(fl.Field().String()) == ""
	})
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return otpPattern.MatchString(fl.Field().String())
	})
	return v
}

// PasswordPolicyError returns the first unmet password rule, or "" when the
// password is acceptable.
func PasswordPolicyError(pw string) string {
	if len(pw) < MinPasswordLength {
		return "Password must be at least 6 characters"
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasLower:
		return "Password must contain at least one lowercase letter"
	case !hasUpper:
		return "Password must contain at least one uppercase letter"
	case !hasDigit:
		return "Password must contain at least one number"
	case !hasSpecial:
		return "Password must contain at least one special character"
	}
	return ""
}

// Validate checks v against its `validate` tags and converts failures into a
// *ValidationError keyed by json field name.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "password":
		return PasswordPolicyError(fe.Value().(string))
	case "otp":
		return "Enter the 6-digit code"
	case "max":
		return "Value is too long"
	default:
		return "Invalid value"
	}
}
