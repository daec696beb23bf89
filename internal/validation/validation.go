// Package validation checks request payloads against the account, post and image rules.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinPostLength = 1
	MaxPostLength = 400
)

var (
	usernamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	passwordPattern  = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*]+$`)
	imageTypePattern = regexp.MustCompile(`^image/(jpeg|png|jpg)$`)
)

// Error reports a payload that failed validation.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is, or wraps, a *Error.
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return passwordPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "imagetype", func(fl validator.FieldLevel) bool {
		return imageTypePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "mailaddr", func(fl validator.FieldLevel) bool {
		addr, err := mail.ParseAddress(fl.Field().String())
		return err == nil && addr.Address == fl.Field().String()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Struct validates s using its `validate` tags.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &Error{Field: fe.Field(), Message: describe(fe)}
	}
	return &Error{Message: err.Error()}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "username":
		return "may only contain letters, digits and underscores"
	case "password":
		return "may only contain letters, digits and !@#$%^&*"
	case "mailaddr":
		return "must be a valid email address"
	case "imagetype":
		return "must be image/jpeg, image/jpg or image/png"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// PostContent checks that content holds between MinPostLength and MaxPostLength characters.
func PostContent(content string) error {
	n := utf8.RuneCountInString(content)
	if strings.TrimSpace(content) == "" || n < MinPostLength {
		return &Error{Field: "content", Message: "must not be empty"}
	}
	if n > MaxPostLength {
		return &Error{Field: "content", Message: fmt.Sprintf("must be at most %d characters", MaxPostLength)}
	}
	return nil
}

// Password checks a bare password value against the credential rules.
func Password(field, value string) error {
	n := utf8.RuneCountInString(value)
	switch {
	case n < 8:
		return &Error{Field: field, Message: "must be at least 8"}
	case n > 50:
		return &Error{Field: field, Message: "must be at most 50"}
	case !passwordPattern.MatchString(value):
		return &Error{Field: field, Message: "may only contain letters, digits and !@#$%^&*"}
	}
	return nil
}
