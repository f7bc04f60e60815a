package service

import (
	"errors"

	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

func handleCircuitBreakerError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}

// storageError maps repository failures onto domain errors. Already-domain
// errors pass through.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, commonerrors.ErrCircuitOpen):
		return handleCircuitBreakerError(err)
	case commonerrors.IsDomainError(err):
		return err
	case errors.Is(err, userrepo.ErrUserNotFound):
		return commonerrors.ErrUserNotFound
	case errors.Is(err, userrepo.ErrUsernameAlreadyExists), errors.Is(err, userrepo.ErrEmailAlreadyExists):
		return commonerrors.ErrDuplicateUser.WithCause(err)
	}
	return commonerrors.ErrDatabaseError.WithCause(err)
}
