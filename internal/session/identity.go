// Package session resolves who is acting on a request and guards operations
// that need an authenticated or admin user.
package session

import (
	"context"

	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	"github.com/AlibekovAA/social-stream/backend/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

// Identity is the acting user of one request, possibly anonymous.
type Identity struct {
	user  *userdomain.Summary
	token jwtverify.Claims
}

func Anonymous() Identity {
	return Identity{}
}

func Authenticated(user userdomain.Summary, token jwtverify.Claims) Identity {
	return Identity{user: &user, token: token}
}

func (i Identity) CurrentUser() (userdomain.Summary, bool) {
	if i.user == nil {
		return userdomain.Summary{}, false
	}
	return *i.user, true
}

func (i Identity) RequireAuthenticated() (userdomain.Summary, error) {
	u, ok := i.CurrentUser()
	if !ok {
		return userdomain.Summary{}, commonerrors.ErrUnauthorized
	}
	return u, nil
}

func (i Identity) RequireAdmin() (userdomain.Summary, error) {
	u, err := i.RequireAuthenticated()
	if err != nil {
		return userdomain.Summary{}, err
	}
	if !u.IsAdmin {
		return userdomain.Summary{}, commonerrors.ErrForbidden
	}
	return u, nil
}

// Token returns the access token claims the identity was resolved from.
func (i Identity) Token() (jwtverify.Claims, bool) {
	return i.token, i.user != nil
}

type contextKey string

const identityKey contextKey = "session_identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the request identity, anonymous when none was set.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
