package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
)

var (
	ErrValidationUsername = commonerrors.NewDomainError(
		"INVALID_USERNAME",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"username must be 3-32 characters of letters, digits, '_' or '-', starting and ending with a letter or digit",
	)

	ErrValidationEmail = commonerrors.NewDomainError(
		"INVALID_EMAIL",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"email address is not valid",
	)

	ErrValidationPassword = commonerrors.NewDomainError(
		"INVALID_PASSWORD",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"password must be 8-72 bytes long",
	)

	ErrInvalidRefreshToken = commonerrors.NewDomainError(
		"INVALID_REFRESH_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid refresh token",
	)

	ErrRefreshTokenExpired = commonerrors.NewDomainError(
		"REFRESH_TOKEN_EXPIRED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token expired",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)
)
