// Package validation checks request payloads before they reach the services.
// Rules are declared with `validate` struct tags; the first violated rule is
// reported as a *common.ValidationError with a human-readable message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	MsgPasswordInvalid = "Password is not valid"
	MsgCodeInvalid     = "Code is not valid"

	minPasswordLength = 8
)

var codePattern = regexp.MustCompile(`^(\d\s*){6}$`)

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("code", func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s and returns nil or a *common.ValidationError.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return common.NewValidationError(err.Error())
	}

	return common.NewValidationError(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "min":
		return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
	case "password":
		return MsgPasswordInvalid
	case "code":
		return MsgCodeInvalid
	default:
		return fmt.Sprintf("%q is not valid", field)
	}
}

// IsStrongPassword reports whether p has at least 8 characters including a
// lowercase letter, an uppercase letter and a digit.
func IsStrongPassword(p string) bool {
	if utf8.RuneCountInString(p) < minPasswordLength {
		return false
	}

	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCode strips all whitespace from a confirmation code.
func NormalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
}
