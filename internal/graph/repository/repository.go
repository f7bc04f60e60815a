package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
	"github.com/AlibekovAA/social-stream/backend/internal/graph/domain"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type Repository interface {
	Create(ctx context.Context, rel domain.Relationship) error
	// Delete removes the edge and reports whether it existed.
	Delete(ctx context.Context, from, to userdomain.ID) (bool, error)
	FollowingIDs(ctx context.Context, id userdomain.ID) ([]userdomain.ID, error)
	Following(ctx context.Context, id userdomain.ID) ([]userdomain.Summary, error)
	Followers(ctx context.Context, id userdomain.ID) ([]userdomain.Summary, error)
	Status(ctx context.Context, actor, other userdomain.ID) (domain.Relation, error)
}

var (
	ErrAlreadyFollowing = errors.New("relationship already exists")
	ErrSelfFollow       = errors.New("relationship endpoints are equal")
	ErrUnknownUser      = errors.New("relationship endpoint does not exist")
)

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, rel domain.Relationship) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO relationships (from_user_id, to_user_id, created_at) VALUES ($1, $2, $3)`,
		string(rel.From),
		string(rel.To),
		rel.CreatedAt,
	)
	switch {
	case err == nil:
		db.MeasureQueryDuration("create relationship", start)
		return nil
	case db.IsUniqueViolation(err):
		db.MeasureQueryDuration("create relationship", start)
		return ErrAlreadyFollowing
	case db.IsCheckViolation(err):
		db.MeasureQueryDuration("create relationship", start)
		return ErrSelfFollow
	case db.IsForeignKeyViolation(err), db.IsInvalidTextRepresentation(err):
		db.MeasureQueryDuration("create relationship", start)
		return ErrUnknownUser
	}
	return db.HandleExecError(err, "create relationship", start)
}

func (r *PgRepository) Delete(ctx context.Context, from, to userdomain.ID) (bool, error) {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`DELETE FROM relationships WHERE from_user_id = $1 AND to_user_id = $2`,
		string(from),
		string(to),
	)
	if err != nil {
		return false, db.HandleExecError(err, "delete relationship", start)
	}
	db.MeasureQueryDuration("delete relationship", start)
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) FollowingIDs(ctx context.Context, id userdomain.ID) ([]userdomain.ID, error) {
	return FollowingIDs(ctx, r.pool, id)
}

// FollowingIDs runs on any Querier so the feed can read the graph and the
// posts inside one snapshot transaction.
func FollowingIDs(ctx context.Context, q db.Querier, id userdomain.ID) ([]userdomain.ID, error) {
	start := time.Now()
	rows, err := q.Query(
		ctx,
		`SELECT to_user_id FROM relationships WHERE from_user_id = $1`,
		string(id),
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "list following ids", start)
	}
	defer rows.Close()

	var ids []userdomain.ID
	for rows.Next() {
		var to userdomain.ID
		if err := rows.Scan(&to); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		ids = append(ids, to)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	db.MeasureQueryDuration("list following ids", start)
	return ids, nil
}

func (r *PgRepository) Following(ctx context.Context, id userdomain.ID) ([]userdomain.Summary, error) {
	return r.listUsers(ctx, "list following",
		`SELECT u.id, u.username, u.is_admin, u.joined_at
		 FROM relationships rel
		 JOIN users u ON u.id = rel.to_user_id
		 WHERE rel.from_user_id = $1
		 ORDER BY u.username ASC`,
		id,
	)
}

func (r *PgRepository) Followers(ctx context.Context, id userdomain.ID) ([]userdomain.Summary, error) {
	return r.listUsers(ctx, "list followers",
		`SELECT u.id, u.username, u.is_admin, u.joined_at
		 FROM relationships rel
		 JOIN users u ON u.id = rel.from_user_id
		 WHERE rel.to_user_id = $1
		 ORDER BY u.username ASC`,
		id,
	)
}

func (r *PgRepository) Status(ctx context.Context, actor, other userdomain.ID) (domain.Relation, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT
			EXISTS(SELECT 1 FROM relationships WHERE from_user_id = $1 AND to_user_id = $2),
			EXISTS(SELECT 1 FROM relationships WHERE from_user_id = $2 AND to_user_id = $1)`,
		string(actor),
		string(other),
	)

	var rel domain.Relation
	if err := row.Scan(&rel.Following, &rel.FollowedBy); err != nil {
		return domain.Relation{}, db.HandleQueryError(err, nil, "check relationship status", start)
	}
	db.MeasureQueryDuration("check relationship status", start)
	return rel, nil
}

func (r *PgRepository) listUsers(ctx context.Context, operation, query string, id userdomain.ID) ([]userdomain.Summary, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, query, string(id))
	if err != nil {
		return nil, db.HandleQueryError(err, nil, operation, start)
	}
	defer rows.Close()

	users := make([]userdomain.Summary, 0)
	for rows.Next() {
		var u userdomain.Summary
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	db.MeasureQueryDuration(operation, start)
	return users, nil
}
