package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	authrepo "github.com/AlibekovAA/social-stream/backend/internal/auth/repository"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

type mockUserRepo struct {
	createFunc         func(ctx context.Context, user userdomain.User) error
	findByIDFunc       func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	findByUsernameFunc func(ctx context.Context, username string) (userdomain.User, error)
	findByEmailFunc    func(ctx context.Context, email string) (userdomain.User, error)
	setAdminFunc       func(ctx context.Context, id userdomain.ID, isAdmin bool) error
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) SetAdmin(ctx context.Context, id userdomain.ID, isAdmin bool) error {
	if m.setAdminFunc != nil {
		return m.setAdminFunc(ctx, id, isAdmin)
	}
	return nil
}

type mockRefreshTokenRepo struct {
	createFunc               func(ctx context.Context, token authdomain.RefreshToken) error
	consumeFunc              func(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	deleteByTokenHashFunc    func(ctx context.Context, hash string) error
	deleteExcessByUserIDFunc func(ctx context.Context, userID string, keep int) error
	deleteExpiredFunc        func(ctx context.Context) (int64, error)
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token authdomain.RefreshToken) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	return nil
}

func (m *mockRefreshTokenRepo) Consume(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, hash)
	}
	return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepo) DeleteByTokenHash(ctx context.Context, hash string) error {
	if m.deleteByTokenHashFunc != nil {
		return m.deleteByTokenHashFunc(ctx, hash)
	}
	return nil
}

func (m *mockRefreshTokenRepo) DeleteExcessByUserID(ctx context.Context, userID string, keep int) error {
	if m.deleteExcessByUserIDFunc != nil {
		return m.deleteExcessByUserIDFunc(ctx, userID, keep)
	}
	return nil
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFunc != nil {
		return m.deleteExpiredFunc(ctx)
	}
	return 0, nil
}

// mockAccountTxManager sends writes to the mock repositories and keeps the
// users of transactions that returned nil in committed. A failed transaction
// commits nothing.
type mockAccountTxManager struct {
	users  *mockUserRepo
	tokens *mockRefreshTokenRepo

	mu        sync.Mutex
	committed []userdomain.User
	rollbacks int
}

func (m *mockAccountTxManager) WithTx(ctx context.Context, fn func(context.Context, authrepo.AccountTx) error) error {
	tx := &mockAccountTx{m: m}
	err := fn(ctx, tx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.rollbacks++
		return err
	}
	m.committed = append(m.committed, tx.users...)
	return nil
}

func (m *mockAccountTxManager) committedUsers() []userdomain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]userdomain.User(nil), m.committed...)
}

type mockAccountTx struct {
	m     *mockAccountTxManager
	users []userdomain.User
}

func (t *mockAccountTx) CreateUser(ctx context.Context, user userdomain.User) error {
	if err := t.m.users.Create(ctx, user); err != nil {
		return err
	}
	t.users = append(t.users, user)
	return nil
}

func (t *mockAccountTx) CreateRefreshToken(ctx context.Context, token authdomain.RefreshToken) error {
	return t.m.tokens.Create(ctx, token)
}

type mockRevokedTokenRepo struct {
	revokeFunc        func(ctx context.Context, jti string, userID string, expiresAt time.Time) error
	isRevokedFunc     func(ctx context.Context, jti string) (bool, error)
	deleteExpiredFunc func(ctx context.Context) (int64, error)
}

func (m *mockRevokedTokenRepo) Revoke(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	if m.revokeFunc != nil {
		return m.revokeFunc(ctx, jti, userID, expiresAt)
	}
	return nil
}

func (m *mockRevokedTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.isRevokedFunc != nil {
		return m.isRevokedFunc(ctx, jti)
	}
	return false, nil
}

func (m *mockRevokedTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFunc != nil {
		return m.deleteExpiredFunc(ctx)
	}
	return 0, nil
}

// mockHasher stores "hashed:<password>" so tests can predict hashes without
// paying for bcrypt.
type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash string, password string) error
	hashes      atomic.Int32
	compares    atomic.Int32
}

func (m *mockHasher) Hash(password string) (string, error) {
	m.hashes.Add(1)
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash string, password string) error {
	m.compares.Add(1)
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	if strings.TrimPrefix(hash, "hashed:") != password {
		return errors.New("password mismatch")
	}
	return nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
	counter   atomic.Int64
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return fmt.Sprintf("id-%d", m.counter.Add(1)), nil
}
