package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/AlibekovAA/social-stream/backend/internal/common/db/dbtest"
	"github.com/AlibekovAA/social-stream/backend/internal/post/domain"
)

func TestPgRepository_CreateMapsConstraintViolations(t *testing.T) {
	connReset := errors.New("connection reset")

	testCases := []struct {
		name  string
		dbErr error
		want  error
	}{
		{"missing author", dbtest.PgError("23503", "posts_user_id_fkey"), ErrUnknownAuthor},
		{"malformed author id", dbtest.PgError("22P02", ""), ErrUnknownAuthor},
		{"connection failure", connReset, connReset},
	}

	post := domain.Post{ID: "p1", UserID: "u1", Content: "hello", CreatedAt: time.Now()}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &PgRepository{pool: dbtest.RowError(tc.dbErr)}
			if _, err := repo.Create(context.Background(), post); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPgRepository_FindByIDMissing(t *testing.T) {
	for _, dbErr := range []error{pgx.ErrNoRows, dbtest.PgError("22P02", "")} {
		repo := &PgRepository{pool: dbtest.RowError(dbErr)}
		if _, err := repo.FindByID(context.Background(), "nope"); !errors.Is(err, ErrPostNotFound) {
			t.Errorf("%v: expected ErrPostNotFound, got %v", dbErr, err)
		}
	}
}
