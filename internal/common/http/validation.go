package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
)

var (
	requestValidator = validator.New(validator.WithRequiredStructEnabled())

	ErrRequestTooLarge = commonerrors.NewDomainError(
		CodeRequestTooLarge,
		commonerrors.CategoryValidation,
		http.StatusRequestEntityTooLarge,
		"request body too large",
	)
)

// DecodeJSON reads a JSON body into v and runs its `validate` struct tags.
// Failures come back as domain errors ready for HandleError.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrRequestTooLarge
		}
		return commonerrors.ErrInvalidPayload.WithCause(err)
	}

	if err := requestValidator.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
			}
			return commonerrors.ErrInvalidPayload.WithCause(errors.New(strings.Join(fields, ", ")))
		}
		return commonerrors.ErrInvalidPayload.WithCause(err)
	}
	return nil
}
