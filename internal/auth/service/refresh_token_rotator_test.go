package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	"github.com/AlibekovAA/social-stream/backend/internal/auth/service"
	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/common/resilience"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

func setupRefreshTokenRotator(t *testing.T) (*service.RefreshTokenRotator, *mockRefreshTokenRepo, *clock.MockClock) {
	t.Helper()
	repo := &mockRefreshTokenRepo{}
	mockClock := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	log, _ := logger.New("", "test", "error")

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  5,
		Timeout:    5 * time.Second,
		ResetAfter: 30 * time.Second,
		Name:       "test_rotator",
		Logger:     log,
	})

	rotator := service.NewRefreshTokenRotator(repo, breaker, &mockIDGenerator{}, 7*24*time.Hour, 5, mockClock, log)
	return rotator, repo, mockClock
}

func TestRefreshTokenRotator_IssueRefreshToken_Success(t *testing.T) {
	rotator, repo, mockClock := setupRefreshTokenRotator(t)

	var keep int
	repo.deleteExcessByUserIDFunc = func(ctx context.Context, userID string, k int) error {
		if userID != "user-123" {
			t.Errorf("expected user-123, got %s", userID)
		}
		keep = k
		return nil
	}
	var created authdomain.RefreshToken
	repo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		created = token
		return nil
	}

	token, err := rotator.IssueRefreshToken(context.Background(), userdomain.User{ID: "user-123"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if keep != 5 {
		t.Errorf("expected cap of 5 to be passed to the repository, got %d", keep)
	}
	if token.RawToken == "" || created.RawToken != "" {
		t.Error("expected raw token to be returned and never stored")
	}
	if created.TokenHash != service.HashRefreshToken(token.RawToken) {
		t.Error("expected stored hash to match the raw token")
	}
	if !created.ExpiresAt.Equal(mockClock.Now().Add(7 * 24 * time.Hour)) {
		t.Errorf("unexpected expiry %v", created.ExpiresAt)
	}
}

func TestRefreshTokenRotator_IssueRefreshToken_RotateError(t *testing.T) {
	rotator, repo, _ := setupRefreshTokenRotator(t)

	repo.deleteExcessByUserIDFunc = func(ctx context.Context, userID string, keep int) error {
		return errors.New("delete failed")
	}
	repo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		t.Fatal("create must not run when rotation fails")
		return nil
	}

	if _, err := rotator.IssueRefreshToken(context.Background(), userdomain.User{ID: "user-123"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRefreshTokenRotator_IssueRefreshToken_CreateError(t *testing.T) {
	rotator, repo, _ := setupRefreshTokenRotator(t)

	repo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		return errors.New("insert failed")
	}

	if _, err := rotator.IssueRefreshToken(context.Background(), userdomain.User{ID: "user-123"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := service.GenerateRefreshToken()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(token))
		}
		if _, dup := seen[token]; dup {
			t.Fatal("expected unique tokens")
		}
		seen[token] = struct{}{}
	}
}
