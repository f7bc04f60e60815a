package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token authdomain.RefreshToken) error
	// Consume deletes the token and returns it, so each token is spent once
	// even under concurrent refreshes.
	Consume(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	DeleteByTokenHash(ctx context.Context, hash string) error
	// DeleteExcessByUserID keeps the newest keep-1 tokens of the user, making
	// room for one more.
	DeleteExcessByUserID(ctx context.Context, userID string, keep int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

type PgRefreshTokenRepository struct {
	pool db.Querier
}

func NewPgRefreshTokenRepository(pool *pgxpool.Pool) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{pool: pool}
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) error {
	return insertRefreshToken(ctx, r.pool, token)
}

func insertRefreshToken(ctx context.Context, q db.Querier, token authdomain.RefreshToken) error {
	start := time.Now()
	_, err := q.Exec(
		ctx,
		`INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return db.HandleExecError(err, "create refresh token", start)
}

func (r *PgRefreshTokenRepository) Consume(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`DELETE FROM refresh_tokens
		 WHERE token_hash = $1
		 RETURNING id, token_hash, user_id, expires_at, created_at`,
		hash,
	)

	var token authdomain.RefreshToken
	err := row.Scan(&token.ID, &token.TokenHash, &token.UserID, &token.ExpiresAt, &token.CreatedAt)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "consume refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

func (r *PgRefreshTokenRepository) DeleteByTokenHash(ctx context.Context, hash string) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE token_hash = $1`,
		hash,
	)
	return db.HandleExecError(err, "delete refresh token", start)
}

func (r *PgRefreshTokenRepository) DeleteExcessByUserID(ctx context.Context, userID string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens
		 WHERE id IN (
		 	SELECT id
		 	FROM refresh_tokens
		 	WHERE user_id = $1
		 	ORDER BY created_at DESC
		 	OFFSET $2
		 )`,
		userID,
		keep-1,
	)
	return db.HandleExecError(err, "delete excess refresh tokens", start)
}

func (r *PgRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < NOW()`,
	)
	if err != nil {
		return 0, db.HandleExecError(err, "delete expired refresh tokens", start)
	}
	db.MeasureQueryDuration("delete expired refresh tokens", start)
	return res.RowsAffected(), nil
}
