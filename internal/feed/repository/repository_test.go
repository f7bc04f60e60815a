package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
)

type recordingTx struct {
	opts db.TxOptions
	err  error
}

func (r *recordingTx) WithTx(ctx context.Context, opts db.TxOptions, fn func(context.Context, db.Querier) error) error {
	r.opts = opts
	return r.err
}

func TestPgRepository_StreamForUsesSnapshot(t *testing.T) {
	tx := &recordingTx{err: errors.New("begin failed")}
	repo := NewPgRepository(tx)

	posts, err := repo.StreamFor(context.Background(), "u1", 10)
	if err == nil {
		t.Fatal("expected transaction error to surface")
	}
	if posts != nil {
		t.Errorf("expected no posts on error, got %v", posts)
	}
	if tx.opts != db.Snapshot {
		t.Errorf("expected snapshot options, got %+v", tx.opts)
	}
}
