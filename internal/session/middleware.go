package session

import (
	"context"
	"net/http"

	"github.com/AlibekovAA/social-stream/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type TokenParser interface {
	ParseToken(tokenString string) (jwtverify.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error)
}

type ResolverDeps struct {
	Tokens  TokenParser
	Revoked RevocationChecker
	Users   UserLookup
	Logger  *logger.Logger
}

type Resolver struct {
	tokens  TokenParser
	revoked RevocationChecker
	users   UserLookup
	log     *logger.Logger
}

func NewResolver(deps ResolverDeps) *Resolver {
	return &Resolver{
		tokens:  deps.Tokens,
		revoked: deps.Revoked,
		users:   deps.Users,
		log:     deps.Logger,
	}
}

// Resolve turns an access token into an identity. Any failure, including a
// revoked token or a user that no longer resolves, gives Anonymous.
func (r *Resolver) Resolve(ctx context.Context, token string) Identity {
	if token == "" {
		return Anonymous()
	}

	metrics.JWTValidationsTotal.Inc()
	claims, err := r.tokens.ParseToken(token)
	if err != nil {
		metrics.JWTValidationsFailed.Inc()
		r.log.WithFields(ctx, logger.Fields{
			"action": "session_token_invalid",
		}).Debugf("access token rejected: %v", err)
		return Anonymous()
	}

	if r.revoked != nil {
		metrics.JWTRevokedChecksTotal.Inc()
		revoked, err := r.revoked.IsRevoked(ctx, claims.JTI)
		if err != nil {
			r.log.WithFields(ctx, logger.Fields{
				"user_id": claims.UserID,
				"action":  "session_revocation_check_failed",
			}).Errorf("revocation check failed: %v", err)
			return Anonymous()
		}
		if revoked {
			return Anonymous()
		}
	}

	user, err := r.users.FindByID(ctx, userdomain.ID(claims.UserID))
	if err != nil {
		r.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "session_user_lookup_failed",
		}).Warnf("session user lookup failed: %v", err)
		return Anonymous()
	}

	return Authenticated(user.Summary(), claims)
}

// Middleware attaches the request identity to the context. It never rejects
// a request; guarded handlers call RequireAuthenticated or RequireAdmin.
func Middleware(resolver *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := jwtverify.BearerToken(r)
			id := resolver.Resolve(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
