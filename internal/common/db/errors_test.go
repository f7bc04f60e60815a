package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
)

func TestExtractTableFromOperation(t *testing.T) {
	cases := map[string]string{
		"create user":            "users",
		"find user by email":     "users",
		"create post":            "posts",
		"list stream":            "posts",
		"create follow":          "relationships",
		"list followers":         "relationships",
		"create refresh token":   "refresh_tokens",
		"check revoked token":    "revoked_tokens",
		"something unrecognised": "unknown",
	}
	for op, want := range cases {
		if got := extractTableFromOperation(op); got != want {
			t.Errorf("%q: expected %s, got %s", op, want, got)
		}
	}
}

func TestConstraintViolationHelpers(t *testing.T) {
	unique := fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	fk := &pgconn.PgError{Code: "23503"}
	check := &pgconn.PgError{Code: "23514"}

	if !IsUniqueViolation(unique) || IsUniqueViolation(fk) {
		t.Error("unique violation detection mismatch")
	}
	if ConstraintName(unique) != "users_email_key" {
		t.Errorf("expected constraint users_email_key, got %q", ConstraintName(unique))
	}
	if !IsForeignKeyViolation(fk) || IsForeignKeyViolation(check) {
		t.Error("foreign key violation detection mismatch")
	}
	if !IsCheckViolation(check) || IsCheckViolation(errors.New("plain")) {
		t.Error("check violation detection mismatch")
	}
}

func TestHandleQueryError(t *testing.T) {
	notFound := errors.New("not found")
	start := time.Now()

	if err := HandleQueryError(nil, notFound, "find post", start); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := HandleQueryError(pgx.ErrNoRows, notFound, "find post", start); !errors.Is(err, notFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := HandleQueryError(&pgconn.PgError{Code: "22P02"}, notFound, "find post", start); !errors.Is(err, notFound) {
		t.Errorf("expected malformed id to map to not found, got %v", err)
	}

	boom := errors.New("connection reset")
	err := HandleQueryError(boom, notFound, "find post", start)
	if !errors.Is(err, boom) || errors.Is(err, notFound) {
		t.Errorf("expected wrapped storage error, got %v", err)
	}
}
