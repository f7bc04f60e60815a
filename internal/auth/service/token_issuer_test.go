package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/social-stream/backend/internal/auth/service"
	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	ids := &mockIDGenerator{newIDFunc: func() (string, error) { return "jti-123", nil }}
	now := time.Now().UTC().Truncate(time.Second)
	issuer := service.NewTokenIssuer(testJWTSecret, ids, testAccessTokenTTL, clock.NewMockClock(now))

	token, jti, err := issuer.IssueAccessToken(userdomain.User{ID: "user-123", Username: "alice"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if jti != "jti-123" {
		t.Errorf("expected jti jti-123, got %s", jti)
	}

	claims, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("expected token to parse, got %v", err)
	}
	if claims.UserID != "user-123" || claims.Username != "alice" || claims.JTI != "jti-123" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Equal(now.Add(testAccessTokenTTL)) {
		t.Errorf("expected expiry %v, got %v", now.Add(testAccessTokenTTL), claims.ExpiresAt)
	}
}

func TestTokenIssuer_IssueAccessToken_IDGenerationError(t *testing.T) {
	ids := &mockIDGenerator{newIDFunc: func() (string, error) { return "", errors.New("id generation failed") }}
	issuer := service.NewTokenIssuer(testJWTSecret, ids, testAccessTokenTTL, clock.NewRealClock())

	if _, _, err := issuer.IssueAccessToken(userdomain.User{ID: "user-123", Username: "alice"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTokenIssuer_ParseToken_Rejects(t *testing.T) {
	issuer := service.NewTokenIssuer(testJWTSecret, &mockIDGenerator{}, testAccessTokenTTL, clock.NewRealClock())
	other := service.NewTokenIssuer("another-secret-key-that-is-32-bytes-or-more", &mockIDGenerator{}, testAccessTokenTTL, clock.NewRealClock())
	expired := service.NewTokenIssuer(testJWTSecret, &mockIDGenerator{}, testAccessTokenTTL, clock.NewMockClock(time.Now().Add(-time.Hour)))

	user := userdomain.User{ID: "user-123", Username: "alice"}
	foreign, _, _ := other.IssueAccessToken(user)
	stale, _, _ := expired.IssueAccessToken(user)

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"usr": "alice",
		"jti": "jti-1",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testJWTSecret))

	testCases := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", commonerrors.ErrInvalidToken},
		{"wrong secret", foreign, commonerrors.ErrInvalidToken},
		{"expired", stale, commonerrors.ErrInvalidToken},
		{"missing subject", noSubject, commonerrors.ErrMissingTokenClaims},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := issuer.ParseToken(tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
