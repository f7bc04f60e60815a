package memory

import (
	"context"
	"sort"
	"time"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	authrepo "github.com/AlibekovAA/social-stream/backend/internal/auth/repository"
)

type RefreshTokenRepository struct {
	s *Store
}

var _ authrepo.RefreshTokenRepository = (*RefreshTokenRepository)(nil)

func (r *RefreshTokenRepository) Create(_ context.Context, token authdomain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.createRefreshTokenLocked(token)
	return nil
}

func (s *Store) createRefreshTokenLocked(token authdomain.RefreshToken) {
	token.RawToken = ""
	s.refreshTokens[token.TokenHash] = token
}

func (r *RefreshTokenRepository) Consume(_ context.Context, hash string) (authdomain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token, ok := r.s.refreshTokens[hash]
	if !ok {
		return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
	}
	delete(r.s.refreshTokens, hash)
	return token, nil
}

func (r *RefreshTokenRepository) DeleteByTokenHash(_ context.Context, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.refreshTokens, hash)
	return nil
}

func (r *RefreshTokenRepository) DeleteExcessByUserID(_ context.Context, userID string, keep int) error {
	if keep < 1 {
		keep = 1
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var owned []authdomain.RefreshToken
	for _, t := range r.s.refreshTokens {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	for i := keep - 1; i < len(owned); i++ {
		delete(r.s.refreshTokens, owned[i].TokenHash)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	now := r.s.clock.Now()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for hash, t := range r.s.refreshTokens {
		if t.ExpiresAt.Before(now) {
			delete(r.s.refreshTokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

type RevokedTokenRepository struct {
	s *Store
}

var _ authrepo.RevokedTokenRepository = (*RevokedTokenRepository)(nil)

func (r *RevokedTokenRepository) Revoke(_ context.Context, jti string, userID string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.revoked[jti]; !ok {
		r.s.revoked[jti] = revokedToken{userID: userID, expiresAt: expiresAt.UnixNano()}
	}
	return nil
}

func (r *RevokedTokenRepository) IsRevoked(_ context.Context, jti string) (bool, error) {
	now := r.s.clock.Now().UnixNano()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.revoked[jti]
	return ok && t.expiresAt > now, nil
}

func (r *RevokedTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	now := r.s.clock.Now().UnixNano()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for jti, t := range r.s.revoked {
		if t.expiresAt < now {
			delete(r.s.revoked, jti)
			deleted++
		}
	}
	return deleted, nil
}
