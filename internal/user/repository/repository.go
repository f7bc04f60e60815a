package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
	"github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	SetAdmin(ctx context.Context, id domain.ID, isAdmin bool) error
}

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrEmailAlreadyExists    = errors.New("email already exists")
)

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Create inserts the user in a single statement. The unique indexes on
// lower(username) and lower(email) settle concurrent registrations.
func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	return InsertUser(ctx, r.pool, user)
}

// InsertUser runs the insert on q, so callers can place it inside a wider
// transaction.
func InsertUser(ctx context.Context, q db.Querier, user domain.User) error {
	start := time.Now()
	_, err := q.Exec(
		ctx,
		`INSERT INTO users (id, username, email, password_hash, is_admin, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(user.ID),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.JoinedAt,
	)
	if err != nil && db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create user", start)
		if db.ConstraintName(err) == emailConstraint {
			return ErrEmailAlreadyExists
		}
		return ErrUsernameAlreadyExists
	}
	return db.HandleExecError(err, "create user", start)
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	return r.findOne(ctx, "find user by id",
		`SELECT id, username, email, password_hash, is_admin, joined_at FROM users WHERE id = $1`,
		string(id),
	)
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findOne(ctx, "find user by username",
		`SELECT id, username, email, password_hash, is_admin, joined_at FROM users WHERE LOWER(username) = $1`,
		domain.NormalizeUsername(username),
	)
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, "find user by email",
		`SELECT id, username, email, password_hash, is_admin, joined_at FROM users WHERE LOWER(email) = $1`,
		domain.NormalizeEmail(email),
	)
}

func (r *PgRepository) SetAdmin(ctx context.Context, id domain.ID, isAdmin bool) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, string(id), isAdmin)
	if err != nil {
		if db.IsInvalidTextRepresentation(err) {
			return ErrUserNotFound
		}
		return db.HandleExecError(err, "set user admin", start)
	}
	db.MeasureQueryDuration("set user admin", start)
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgRepository) findOne(ctx context.Context, operation, query string, arg string) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(ctx, query, arg)

	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.JoinedAt)
	if err := db.HandleQueryError(err, ErrUserNotFound, operation, start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
