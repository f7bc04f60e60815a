package repository

import (
	"context"

	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
	graphrepo "github.com/AlibekovAA/social-stream/backend/internal/graph/repository"
	postdomain "github.com/AlibekovAA/social-stream/backend/internal/post/domain"
	postrepo "github.com/AlibekovAA/social-stream/backend/internal/post/repository"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type Repository interface {
	// StreamFor reads the user's follow set and the matching posts from one
	// consistent snapshot.
	StreamFor(ctx context.Context, user userdomain.ID, limit int) ([]postdomain.Post, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, opts db.TxOptions, fn func(context.Context, db.Querier) error) error
}

type PgRepository struct {
	tx TxRunner
}

func NewPgRepository(tx TxRunner) *PgRepository {
	return &PgRepository{tx: tx}
}

func (r *PgRepository) StreamFor(ctx context.Context, user userdomain.ID, limit int) ([]postdomain.Post, error) {
	var posts []postdomain.Post
	err := r.tx.WithTx(ctx, db.Snapshot, func(ctx context.Context, q db.Querier) error {
		following, err := graphrepo.FollowingIDs(ctx, q, user)
		if err != nil {
			return err
		}

		authors := append([]userdomain.ID{user}, following...)
		posts, err = postrepo.PostsByAuthors(ctx, q, authors, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
