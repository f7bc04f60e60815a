package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	authrepo "github.com/AlibekovAA/social-stream/backend/internal/auth/repository"
	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/social-stream/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/common/resilience"
	"github.com/AlibekovAA/social-stream/backend/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type RefreshTokenRotatorInterface interface {
	IssueRefreshToken(ctx context.Context, user userdomain.User) (authdomain.RefreshToken, error)
	NewRefreshToken(user userdomain.User) (authdomain.RefreshToken, string, error)
}

type RefreshTokenRotator struct {
	refreshTokenRepo authrepo.RefreshTokenRepository
	dbCircuitBreaker resilience.CircuitBreakerInterface
	idGenerator      commoncrypto.IDGenerator
	clock            clock.Clock
	maxRefreshTokens int
	refreshTokenTTL  time.Duration
	log              *logger.Logger
}

func NewRefreshTokenRotator(
	refreshTokenRepo authrepo.RefreshTokenRepository,
	dbCircuitBreaker resilience.CircuitBreakerInterface,
	idGenerator commoncrypto.IDGenerator,
	refreshTokenTTL time.Duration,
	maxRefreshTokens int,
	clock clock.Clock,
	log *logger.Logger,
) *RefreshTokenRotator {
	return &RefreshTokenRotator{
		refreshTokenRepo: refreshTokenRepo,
		dbCircuitBreaker: dbCircuitBreaker,
		idGenerator:      idGenerator,
		clock:            clock,
		maxRefreshTokens: maxRefreshTokens,
		refreshTokenTTL:  refreshTokenTTL,
		log:              log,
	}
}

// RotateIfNeeded trims the user's tokens so one more fits under the cap.
func (rtr *RefreshTokenRotator) RotateIfNeeded(ctx context.Context, userID string) error {
	err := rtr.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return rtr.refreshTokenRepo.DeleteExcessByUserID(ctx, userID, rtr.maxRefreshTokens)
	})
	if err != nil {
		if errors.Is(err, commonerrors.ErrCircuitOpen) {
			rtr.log.WithFields(ctx, logger.Fields{
				"user_id": userID,
				"action":  "delete_excess_refresh_tokens_db_circuit_open",
			}).Error("failed to delete excess refresh tokens: database circuit breaker is open")
			return err
		}
		rtr.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "delete_excess_refresh_tokens_failed",
		}).Warnf("failed to delete excess refresh tokens: %v", err)
		return err
	}

	return nil
}

func (rtr *RefreshTokenRotator) IssueRefreshToken(ctx context.Context, user userdomain.User) (authdomain.RefreshToken, error) {
	if err := rtr.RotateIfNeeded(ctx, string(user.ID)); err != nil {
		return authdomain.RefreshToken{}, err
	}

	stored, rawToken, err := rtr.NewRefreshToken(user)
	if err != nil {
		return authdomain.RefreshToken{}, err
	}

	err = rtr.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return rtr.refreshTokenRepo.Create(ctx, stored)
	})
	if err != nil {
		if errors.Is(err, commonerrors.ErrCircuitOpen) {
			rtr.log.WithFields(ctx, logger.Fields{
				"user_id": string(user.ID),
				"action":  "create_refresh_token_db_circuit_open",
			}).Error("failed to create refresh token: database circuit breaker is open")
		}
		return authdomain.RefreshToken{}, err
	}

	metrics.RefreshTokensIssued.Inc()

	stored.RawToken = rawToken
	return stored, nil
}

// NewRefreshToken builds an unsaved token for user and returns it with the
// raw value the client will hold. Only the hash is meant for storage.
func (rtr *RefreshTokenRotator) NewRefreshToken(user userdomain.User) (authdomain.RefreshToken, string, error) {
	rawToken, err := GenerateRefreshToken()
	if err != nil {
		return authdomain.RefreshToken{}, "", err
	}

	id, err := rtr.idGenerator.NewID()
	if err != nil {
		return authdomain.RefreshToken{}, "", err
	}

	now := rtr.clock.Now()
	return authdomain.RefreshToken{
		ID:        id,
		TokenHash: HashRefreshToken(rawToken),
		UserID:    string(user.ID),
		ExpiresAt: now.Add(rtr.refreshTokenTTL),
		CreatedAt: now,
	}, rawToken, nil
}

func GenerateRefreshToken() (string, error) {
	b := make([]byte, constants.RefreshTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
