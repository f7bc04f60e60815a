package memory

import (
	"context"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	authrepo "github.com/AlibekovAA/social-stream/backend/internal/auth/repository"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

// AccountTxManager holds the write lock for the whole of fn and undoes its
// writes when fn fails or panics.
type AccountTxManager struct {
	s *Store
}

var _ authrepo.AccountTxManager = (*AccountTxManager)(nil)

func (m *AccountTxManager) WithTx(ctx context.Context, fn func(context.Context, authrepo.AccountTx) error) (err error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	tx := &accountTx{s: m.s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		} else if err != nil {
			tx.rollback()
		}
	}()

	err = fn(ctx, tx)
	return err
}

type accountTx struct {
	s    *Store
	undo []func()
}

func (t *accountTx) CreateUser(_ context.Context, user userdomain.User) error {
	if err := t.s.createUserLocked(user); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.s.deleteUserLocked(user.ID) })
	return nil
}

func (t *accountTx) CreateRefreshToken(_ context.Context, token authdomain.RefreshToken) error {
	t.s.createRefreshTokenLocked(token)
	t.undo = append(t.undo, func() { delete(t.s.refreshTokens, token.TokenHash) })
	return nil
}

func (t *accountTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}
