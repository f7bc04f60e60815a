package repository

import (
	"context"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

// AccountTx is the write surface for opening an account together with its
// first refresh token.
type AccountTx interface {
	CreateUser(ctx context.Context, user userdomain.User) error
	CreateRefreshToken(ctx context.Context, token authdomain.RefreshToken) error
}

// AccountTxManager commits every write made through the AccountTx, or none.
type AccountTxManager interface {
	WithTx(ctx context.Context, fn func(context.Context, AccountTx) error) error
}

type TxRunner interface {
	WithTx(ctx context.Context, opts db.TxOptions, fn func(context.Context, db.Querier) error) error
}

type PgAccountTxManager struct {
	tx TxRunner
}

func NewPgAccountTxManager(tx TxRunner) *PgAccountTxManager {
	return &PgAccountTxManager{tx: tx}
}

func (m *PgAccountTxManager) WithTx(ctx context.Context, fn func(context.Context, AccountTx) error) error {
	return m.tx.WithTx(ctx, db.ReadWrite, func(ctx context.Context, q db.Querier) error {
		return fn(ctx, &pgAccountTx{q: q})
	})
}

type pgAccountTx struct {
	q db.Querier
}

func (t *pgAccountTx) CreateUser(ctx context.Context, user userdomain.User) error {
	return userrepo.InsertUser(ctx, t.q, user)
}

func (t *pgAccountTx) CreateRefreshToken(ctx context.Context, token authdomain.RefreshToken) error {
	return insertRefreshToken(ctx, t.q, token)
}
