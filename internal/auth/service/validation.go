package service

import (
	"errors"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// credentials is validated before anything touches storage. Email syntax is
// left to the validator's RFC 5322 check.
type credentials struct {
	Username string `validate:"required,min=3,max=32,username"`
	Email    string `validate:"required,max=254,email"`
	Password string `validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return isValidUsername(fl.Field().String())
	})
	return v
}

func validateCredentials(username, email, password string) error {
	err := validate.Struct(credentials{Username: username, Email: email, Password: password})
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return ErrValidationUsername.WithCause(err)
		}
		switch verrs[0].Field() {
		case "Email":
			return ErrValidationEmail
		case "Password":
			return ErrValidationPassword
		default:
			return ErrValidationUsername
		}
	}

	// bcrypt only reads the first 72 bytes, so the bound is on bytes.
	if len(password) < constants.PasswordMinLength || len(password) > constants.PasswordMaxLength {
		return ErrValidationPassword
	}
	return nil
}

func isValidUsername(value string) bool {
	if len(value) < constants.UsernameMinLength || len(value) > constants.UsernameMaxLength {
		return false
	}

	if !usernameRegex.MatchString(value) {
		return false
	}

	if !unicode.IsLetter(rune(value[0])) && !unicode.IsDigit(rune(value[0])) {
		return false
	}

	if !unicode.IsLetter(rune(value[len(value)-1])) && !unicode.IsDigit(rune(value[len(value)-1])) {
		return false
	}

	return true
}
