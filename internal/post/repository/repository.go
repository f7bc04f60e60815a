package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
	"github.com/AlibekovAA/social-stream/backend/internal/post/domain"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type Repository interface {
	// Create stores the post and returns it with the author's username filled in.
	Create(ctx context.Context, post domain.Post) (domain.Post, error)
	FindByID(ctx context.Context, id domain.ID) (domain.Post, error)
	ListByAuthor(ctx context.Context, author userdomain.ID, limit int) ([]domain.Post, error)
	PostsByAuthors(ctx context.Context, authors []userdomain.ID, limit int) ([]domain.Post, error)
	ListAll(ctx context.Context, limit int) ([]domain.Post, error)
}

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrUnknownAuthor = errors.New("post author does not exist")
)

const selectPosts = `SELECT p.id, p.user_id, u.username, p.content, p.created_at
	 FROM posts p
	 JOIN users u ON u.id = p.user_id`

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`WITH inserted AS (
			INSERT INTO posts (id, user_id, content, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, content, created_at
		)
		SELECT i.id, i.user_id, u.username, i.content, i.created_at
		FROM inserted i
		JOIN users u ON u.id = i.user_id`,
		string(post.ID),
		string(post.UserID),
		post.Content,
		post.CreatedAt,
	)

	stored, err := scanPost(row)
	if err != nil {
		if db.IsForeignKeyViolation(err) || db.IsInvalidTextRepresentation(err) {
			db.MeasureQueryDuration("create post", start)
			return domain.Post{}, ErrUnknownAuthor
		}
		return domain.Post{}, db.HandleExecError(err, "create post", start)
	}
	db.MeasureQueryDuration("create post", start)
	return stored, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.Post, error) {
	start := time.Now()
	row := r.pool.QueryRow(ctx, selectPosts+` WHERE p.id = $1`, string(id))

	post, err := scanPost(row)
	if err := db.HandleQueryError(err, ErrPostNotFound, "find post by id", start); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r *PgRepository) ListByAuthor(ctx context.Context, author userdomain.ID, limit int) ([]domain.Post, error) {
	return PostsByAuthors(ctx, r.pool, []userdomain.ID{author}, limit)
}

func (r *PgRepository) PostsByAuthors(ctx context.Context, authors []userdomain.ID, limit int) ([]domain.Post, error) {
	return PostsByAuthors(ctx, r.pool, authors, limit)
}

func (r *PgRepository) ListAll(ctx context.Context, limit int) ([]domain.Post, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		selectPosts+` ORDER BY p.created_at DESC, p.id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "list all posts", start)
	}
	return collectPosts(rows, "list all posts", start)
}

// PostsByAuthors returns the newest posts written by any of authors. It runs
// on any Querier so callers can combine it with other reads in one snapshot.
func PostsByAuthors(ctx context.Context, q db.Querier, authors []userdomain.ID, limit int) ([]domain.Post, error) {
	if len(authors) == 0 {
		return []domain.Post{}, nil
	}

	ids := make([]string, len(authors))
	for i, a := range authors {
		ids[i] = string(a)
	}

	start := time.Now()
	rows, err := q.Query(
		ctx,
		selectPosts+` WHERE p.user_id = ANY($1::uuid[])
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $2`,
		ids,
		limit,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "list posts by authors", start)
	}
	return collectPosts(rows, "list posts by authors", start)
}

func collectPosts(rows pgx.Rows, operation string, start time.Time) ([]domain.Post, error) {
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, db.HandleQueryError(err, nil, operation, start)
	}
	db.MeasureQueryDuration(operation, start)
	return posts, nil
}

func scanPost(row pgx.Row) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.Content, &p.CreatedAt)
	return p, err
}
