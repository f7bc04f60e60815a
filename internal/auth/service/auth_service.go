package service

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	authrepo "github.com/AlibekovAA/social-stream/backend/internal/auth/repository"
	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	"github.com/AlibekovAA/social-stream/backend/internal/common/config"
	commoncrypto "github.com/AlibekovAA/social-stream/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	"github.com/AlibekovAA/social-stream/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/common/resilience"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

// dummyPassword is hashed when the service is built and compared against when
// a login names an unknown email, so both failure paths spend one bcrypt
// comparison and nothing else.
const dummyPassword = "social-stream-dummy-password"

type AuthServiceDeps struct {
	Repo             userrepo.Repository
	Accounts         authrepo.AccountTxManager
	RefreshTokenRepo authrepo.RefreshTokenRepository
	RevokedTokenRepo authrepo.RevokedTokenRepository
	Hasher           commoncrypto.PasswordHasher
	IDGenerator      commoncrypto.IDGenerator
	Clock            clock.Clock
	Log              *logger.Logger
}

type AuthServiceConfig struct {
	JWTSecret               string
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	MaxRefreshTokens        int
	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

type AuthService struct {
	repo             userrepo.Repository
	accounts         authrepo.AccountTxManager
	refreshTokenRepo authrepo.RefreshTokenRepository
	revokedTokenRepo authrepo.RevokedTokenRepository
	hasher           commoncrypto.PasswordHasher
	idGenerator      commoncrypto.IDGenerator
	clock            clock.Clock
	log              *logger.Logger
	tokens           *TokenIssuer
	rotator          RefreshTokenRotatorInterface
	dbCircuitBreaker resilience.CircuitBreakerInterface
	dummyHash        string
}

func NewAuthService(deps AuthServiceDeps, cfg AuthServiceConfig) *AuthService {
	c := deps.Clock
	if c == nil {
		c = clock.NewRealClock()
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  cfg.CircuitBreakerThreshold,
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "auth_db",
		ExpectedErrors: []error{
			userrepo.ErrUserNotFound,
			userrepo.ErrUsernameAlreadyExists,
			userrepo.ErrEmailAlreadyExists,
			authrepo.ErrRefreshTokenNotFound,
		},
		Logger: deps.Log,
	})

	dummyHash, err := deps.Hasher.Hash(dummyPassword)
	if err != nil {
		deps.Log.Errorf("failed to hash dummy password: %v", err)
	}

	return &AuthService{
		repo:             deps.Repo,
		accounts:         deps.Accounts,
		refreshTokenRepo: deps.RefreshTokenRepo,
		revokedTokenRepo: deps.RevokedTokenRepo,
		hasher:           deps.Hasher,
		idGenerator:      deps.IDGenerator,
		clock:            c,
		log:              deps.Log,
		tokens:           NewTokenIssuer(cfg.JWTSecret, deps.IDGenerator, cfg.AccessTokenTTL, c),
		rotator: NewRefreshTokenRotator(
			deps.RefreshTokenRepo,
			breaker,
			deps.IDGenerator,
			cfg.RefreshTokenTTL,
			cfg.MaxRefreshTokens,
			c,
			deps.Log,
		),
		dbCircuitBreaker: breaker,
		dummyHash:        dummyHash,
	}
}

type CreateUserInput struct {
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User             userdomain.Summary
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenIssuer exposes the access token parser for the session resolver.
func (s *AuthService) TokenIssuer() *TokenIssuer {
	return s.tokens
}

// CreateUser validates and stores a new account. Username and email are
// stored lower-cased; a clash on either gives ErrDuplicateUser and leaves no
// row behind.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (userdomain.User, error) {
	user, err := s.newUser(ctx, input)
	if err != nil {
		return userdomain.User{}, err
	}

	err = s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, user)
	})
	if err != nil {
		return userdomain.User{}, s.createUserFailed(ctx, user, err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "create_user_success",
	}).Info("user created")
	return user, nil
}

// Register opens an account and its first session. The user row and the
// refresh token are written in one transaction: when either write fails the
// account does not exist and the same registration can be retried.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	user, err := s.newUser(ctx, CreateUserInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		recordRegistration(resultLabel(err))
		return AuthResult{}, err
	}

	accessToken, _, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		recordRegistration("error")
		return AuthResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	refresh, rawRefresh, err := s.rotator.NewRefreshToken(user)
	if err != nil {
		recordRegistration("error")
		return AuthResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	err = s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return s.accounts.WithTx(ctx, func(ctx context.Context, tx authrepo.AccountTx) error {
			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}
			return tx.CreateRefreshToken(ctx, refresh)
		})
	})
	if err != nil {
		mapped := s.createUserFailed(ctx, user, err)
		recordRegistration(resultLabel(mapped))
		return AuthResult{}, mapped
	}

	incrementRefreshTokensIssued()
	recordRegistration("success")
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "register_success",
	}).Info("user registered")

	return AuthResult{
		User:             user.Summary(),
		AccessToken:      accessToken,
		RefreshToken:     rawRefresh,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *AuthService) newUser(ctx context.Context, input CreateUserInput) (userdomain.User, error) {
	username := userdomain.NormalizeUsername(input.Username)
	email := userdomain.NormalizeEmail(input.Email)

	if err := validateCredentials(username, email, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "create_user_validation_failed",
		}).Warnf("create user validation failed: %v", err)
		return userdomain.User{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "create_user_hash_failed",
		}).Errorf("create user failed: password hash error: %v", err)
		return userdomain.User{}, commonerrors.ErrInternalError.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "create_user_id_generation_failed",
		}).Errorf("create user failed: id generation error: %v", err)
		return userdomain.User{}, commonerrors.ErrInternalError.WithCause(err)
	}

	return userdomain.User{
		ID:           userdomain.ID(id),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
		JoinedAt:     s.clock.Now(),
	}, nil
}

func (s *AuthService) createUserFailed(ctx context.Context, user userdomain.User, err error) error {
	mapped := storageError(err)
	if errors.Is(mapped, commonerrors.ErrDuplicateUser) {
		s.log.WithFields(ctx, logger.Fields{
			"username": user.Username,
			"action":   "create_user_duplicate",
		}).Warn("create user failed: already exists")
		return mapped
	}
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"action":   "create_user_failed",
	}).Errorf("create user failed: %v", err)
	return mapped
}

// VerifyCredentials checks a password against the account behind email. An
// unknown email yields ErrUserNotFound and a wrong password
// ErrInvalidCredentials; callers facing the network should not tell them apart.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (userdomain.User, error) {
	var user userdomain.User
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByEmail(ctx, email)
		return err
	})
	if err != nil {
		mapped := storageError(err)
		if errors.Is(mapped, commonerrors.ErrUserNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
		}
		return userdomain.User{}, mapped
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return userdomain.User{}, commonerrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := userdomain.NormalizeEmail(input.Email)
	s.log.WithFields(ctx, logger.Fields{
		"email":  email,
		"action": "login_attempt",
	}).Info("login attempt")

	user, err := s.VerifyCredentials(ctx, email, input.Password)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) || errors.Is(err, commonerrors.ErrInvalidCredentials) {
			recordLogin("invalid")
			s.log.WithFields(ctx, logger.Fields{
				"email":  email,
				"action": "login_invalid_credentials",
			}).Warn("login failed: invalid credentials")
			return AuthResult{}, commonerrors.ErrInvalidCredentials
		}
		recordLogin("error")
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return AuthResult{}, err
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		recordLogin("error")
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	recordLogin("success")
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "login_success",
	}).Info("login success")
	return result, nil
}

// RefreshAccessToken spends refreshToken and issues a fresh session. A token
// can be spent once; replaying it fails with ErrInvalidRefreshToken.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (AuthResult, error) {
	if refreshToken == "" {
		return AuthResult{}, ErrInvalidRefreshToken
	}

	var stored authdomain.RefreshToken
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		stored, err = s.refreshTokenRepo.Consume(ctx, HashRefreshToken(refreshToken))
		return err
	})
	if err != nil {
		if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "refresh_token_not_found",
			}).Warn("refresh token failed: not found")
			return AuthResult{}, ErrInvalidRefreshToken
		}
		s.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_lookup_failed",
		}).Errorf("refresh token lookup failed: %v", err)
		return AuthResult{}, storageError(err)
	}

	if s.clock.Now().After(stored.ExpiresAt) {
		incrementRefreshTokensExpired()
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_token_expired",
		}).Warn("refresh token expired")
		return AuthResult{}, ErrRefreshTokenExpired
	}

	user, err := s.repo.FindByID(ctx, userdomain.ID(stored.UserID))
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_token_user_lookup_failed",
		}).Errorf("refresh token failed: user lookup error: %v", err)
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidRefreshToken
		}
		return AuthResult{}, storageError(err)
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	incrementRefreshTokensUsed()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": stored.UserID,
		"action":  "refresh_token_success",
	}).Info("refresh token success")
	return result, nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.refreshTokenRepo.DeleteByTokenHash(ctx, HashRefreshToken(refreshToken)); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "revoke_refresh_token_failed",
		}).Errorf("revoke refresh token failed: %v", err)
		return storageError(err)
	}

	incrementRefreshTokensRevoked()
	return nil
}

// RevokeAccessToken blacklists the token's jti until it would have expired.
func (s *AuthService) RevokeAccessToken(ctx context.Context, claims jwtverify.Claims) error {
	if claims.JTI == "" {
		return nil
	}

	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.clock.Now().Add(s.tokens.AccessTokenTTL())
	}

	if err := s.revokedTokenRepo.Revoke(ctx, claims.JTI, claims.UserID, expiresAt); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"jti":     claims.JTI,
			"user_id": claims.UserID,
			"action":  "revoke_access_token_failed",
		}).Errorf("revoke access token failed: %v", err)
		return storageError(err)
	}

	incrementAccessTokensRevoked()
	s.log.WithFields(ctx, logger.Fields{
		"jti":     claims.JTI,
		"user_id": claims.UserID,
		"action":  "access_token_revoked",
	}).Info("access token revoked")
	return nil
}

// SetAdmin changes the admin flag of the named user. Callers check that the
// acting identity is an admin.
func (s *AuthService) SetAdmin(ctx context.Context, username string, isAdmin bool) (userdomain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return userdomain.User{}, storageError(err)
	}

	if err := s.repo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return userdomain.User{}, storageError(err)
	}

	user.IsAdmin = isAdmin
	s.log.WithFields(ctx, logger.Fields{
		"user_id":  string(user.ID),
		"is_admin": isAdmin,
		"action":   "set_admin",
	}).Info("admin flag changed")
	return user, nil
}

// SeedAdmin creates the configured admin account unless it already exists.
func (s *AuthService) SeedAdmin(ctx context.Context, seed config.AdminSeed) error {
	if !seed.Enabled() {
		return nil
	}

	_, err := s.CreateUser(ctx, CreateUserInput{
		Username: seed.Username,
		Email:    seed.Email,
		Password: seed.Password,
		IsAdmin:  true,
	})
	if errors.Is(err, commonerrors.ErrDuplicateUser) {
		return nil
	}
	return err
}

func (s *AuthService) issueSession(ctx context.Context, user userdomain.User) (AuthResult, error) {
	accessToken, _, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return AuthResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	refresh, err := s.rotator.IssueRefreshToken(ctx, user)
	if err != nil {
		return AuthResult{}, storageError(err)
	}

	return AuthResult{
		User:             user.Summary(),
		AccessToken:      accessToken,
		RefreshToken:     refresh.RawToken,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func resultLabel(err error) string {
	if de, ok := commonerrors.AsDomainError(err); ok {
		switch de.Category() {
		case commonerrors.CategoryValidation:
			return "invalid"
		case commonerrors.CategoryConflict:
			return "duplicate"
		}
	}
	return "error"
}
