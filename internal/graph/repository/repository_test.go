package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlibekovAA/social-stream/backend/internal/common/db/dbtest"
	"github.com/AlibekovAA/social-stream/backend/internal/graph/domain"
)

func TestPgRepository_CreateMapsConstraintViolations(t *testing.T) {
	connReset := errors.New("connection reset")

	testCases := []struct {
		name  string
		dbErr error
		want  error
	}{
		{"duplicate edge", dbtest.PgError("23505", "relationships_pkey"), ErrAlreadyFollowing},
		{"self edge", dbtest.PgError("23514", "relationships_no_self_follow"), ErrSelfFollow},
		{"missing endpoint", dbtest.PgError("23503", "relationships_to_user_id_fkey"), ErrUnknownUser},
		{"malformed id", dbtest.PgError("22P02", ""), ErrUnknownUser},
		{"connection failure", connReset, connReset},
	}

	rel := domain.Relationship{From: "a", To: "b", CreatedAt: time.Now()}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &PgRepository{pool: dbtest.ExecError(tc.dbErr)}
			if err := repo.Create(context.Background(), rel); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPgRepository_DeleteReportsExistence(t *testing.T) {
	testCases := []struct {
		tag  string
		want bool
	}{
		{"DELETE 1", true},
		{"DELETE 0", false},
	}

	for _, tc := range testCases {
		repo := &PgRepository{pool: dbtest.ExecResult(tc.tag)}
		existed, err := repo.Delete(context.Background(), "a", "b")
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", tc.tag, err)
		}
		if existed != tc.want {
			t.Errorf("%s: expected existed=%v, got %v", tc.tag, tc.want, existed)
		}
	}
}
