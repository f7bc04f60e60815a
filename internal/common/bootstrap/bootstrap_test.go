package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	"github.com/AlibekovAA/social-stream/backend/internal/common/config"
	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/social-stream/backend/internal/common/crypto"
	"github.com/AlibekovAA/social-stream/backend/internal/common/dto"
	commonhttp "github.com/AlibekovAA/social-stream/backend/internal/common/http"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/storage/memory"
)

type testApp struct {
	t       *testing.T
	handler http.Handler
	svc     Services
	repos   Repositories
}

type authSession struct {
	Token string          `json:"token"`
	User  dto.UserSummary `json:"user"`
	// refresh is the refresh_token cookie, not part of the JSON body.
	refresh string
}

type streamBody struct {
	Kind  string     `json:"kind"`
	Posts []dto.Post `json:"posts"`
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log, _ := logger.New("", "test", "error")
	cfg := config.SocialConfig{
		StorageDriver:           config.StorageDriverMemory,
		JWTSecret:               "test-secret-key-must-be-at-least-32-bytes-long",
		RequestTimeout:          5 * time.Second,
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTL:         time.Hour,
		MaxRefreshTokensPerUser: constants.DefaultMaxRefreshTokensPerUser,
		CircuitBreakerThreshold: constants.DefaultCircuitBreakerThreshold,
		CircuitBreakerTimeout:   constants.DefaultCircuitBreakerTimeout,
		CircuitBreakerReset:     constants.DefaultCircuitBreakerReset,
		StreamLimit:             constants.StreamDisplayLimit,
	}

	repos := MemoryRepositories(memory.NewStore(clock.NewRealClock()))
	hasher := &commoncrypto.BcryptHasher{Cost: bcrypt.MinCost}
	svc := NewServices(repos, cfg, log, clock.NewRealClock(), hasher)
	return &testApp{t: t, handler: NewHandler(svc, repos, cfg, log, nil), svc: svc, repos: repos}
}

func (a *testApp) do(method, path, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) register(username, email, password string) authSession {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}
	return decodeSession(a.t, rec)
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) authSession {
	t.Helper()
	var s authSession
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			s.refresh = c.Value
		}
	}
	return s
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) commonhttp.ErrorEnvelope {
	t.Helper()
	var env commonhttp.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func decodeStream(t *testing.T, rec *httptest.ResponseRecorder) streamBody {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var s streamBody
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode stream: %v", err)
	}
	return s
}

func TestSocialFlow_FollowPostStream(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice", "alice@x.com", "password-1")
	bob := app.register("bob", "bob@x.com", "password-2")
	carol := app.register("carol", "carol@x.com", "password-3")

	if rec := app.do(http.MethodPost, "/api/users/bob/follow", alice.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("follow: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := app.do(http.MethodPost, "/api/posts", bob.Token, map[string]string{"content": "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created dto.Post
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	for name, token := range map[string]string{"alice": alice.Token, "bob": bob.Token} {
		s := decodeStream(t, app.do(http.MethodGet, "/api/stream", token, nil))
		if s.Kind != "personal" || len(s.Posts) != 1 || s.Posts[0].Content != "hello" || s.Posts[0].Username != "bob" {
			t.Errorf("%s: expected bob's hello in personal stream, got %+v", name, s)
		}
	}

	s := decodeStream(t, app.do(http.MethodGet, "/api/stream", carol.Token, nil))
	if len(s.Posts) != 0 {
		t.Errorf("carol: expected empty personal stream, got %+v", s.Posts)
	}

	s = decodeStream(t, app.do(http.MethodGet, "/api/stream/global", "", nil))
	if s.Kind != "global" || len(s.Posts) != 1 {
		t.Errorf("expected one global post, got %+v", s)
	}

	s = decodeStream(t, app.do(http.MethodGet, "/api/stream", "", nil))
	if s.Kind != "global" {
		t.Errorf("expected anonymous stream to fall back to global, got %q", s.Kind)
	}

	s = decodeStream(t, app.do(http.MethodGet, "/api/users/bob/posts?limit=1", "", nil))
	if len(s.Posts) != 1 || s.Posts[0].ID != created.ID {
		t.Errorf("expected bob's posts, got %+v", s.Posts)
	}

	rec = app.do(http.MethodGet, "/api/posts/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get post: expected 200, got %d", rec.Code)
	}

	rec = app.do(http.MethodGet, "/api/users/bob/followers", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"alice"`) {
		t.Errorf("followers: expected alice, got %d %s", rec.Code, rec.Body.String())
	}

	rec = app.do(http.MethodGet, "/api/users/alice/relation", bob.Token, nil)
	var rel dto.Relation
	_ = json.Unmarshal(rec.Body.Bytes(), &rel)
	if rec.Code != http.StatusOK || rel.Following || !rel.FollowedBy {
		t.Errorf("relation: unexpected %d %+v", rec.Code, rel)
	}

	if rec := app.do(http.MethodDelete, "/api/users/bob/follow", alice.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("unfollow: expected 204, got %d", rec.Code)
	}
	s = decodeStream(t, app.do(http.MethodGet, "/api/stream", alice.Token, nil))
	if len(s.Posts) != 0 {
		t.Errorf("expected bob's post gone after unfollow, got %+v", s.Posts)
	}
}

func TestSocialFlow_ErrorResponses(t *testing.T) {
	app := newTestApp(t)
	alice := app.register("alice", "alice@x.com", "password-1")
	app.register("bob", "bob@x.com", "password-2")

	testCases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"post anonymously", http.MethodPost, "/api/posts", "", map[string]string{"content": "x"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty post", http.MethodPost, "/api/posts", alice.Token, map[string]string{"content": "   "}, http.StatusBadRequest, "EMPTY_CONTENT"},
		{"follow self", http.MethodPost, "/api/users/alice/follow", alice.Token, nil, http.StatusBadRequest, "SELF_FOLLOW"},
		{"follow unknown", http.MethodPost, "/api/users/ghost/follow", alice.Token, nil, http.StatusNotFound, "USER_NOT_FOUND"},
		{"follow anonymously", http.MethodPost, "/api/users/bob/follow", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown post", http.MethodGet, "/api/posts/not-a-uuid", "", nil, http.StatusNotFound, "POST_NOT_FOUND"},
		{"unknown user posts", http.MethodGet, "/api/users/ghost/posts", "", nil, http.StatusNotFound, "USER_NOT_FOUND"},
		{"bad token is anonymous", http.MethodGet, "/api/me", "garbage", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"admin route needs admin", http.MethodPut, "/api/admin/users/bob/admin", alice.Token, map[string]bool{"is_admin": true}, http.StatusForbidden, "FORBIDDEN"},
		{"duplicate username", http.MethodPost, "/api/auth/register", "", map[string]string{"username": "Alice", "email": "a2@x.com", "password": "password-9"}, http.StatusConflict, "DUPLICATE_USER"},
		{"duplicate email", http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice2", "email": "ALICE@x.com", "password": "password-9"}, http.StatusConflict, "DUPLICATE_USER"},
		{"login wrong password", http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@x.com", "password": "nope-nope"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"login unknown email", http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "password-1"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"register missing fields", http.MethodPost, "/api/auth/register", "", map[string]string{"username": "dave"}, http.StatusBadRequest, "INVALID_PAYLOAD"},
		{"refresh without cookie", http.MethodPost, "/api/auth/refresh", "", nil, http.StatusUnauthorized, commonhttp.CodeMissingRefreshToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.do(tc.method, tc.path, tc.token, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if env := decodeError(t, rec); env.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, env.Code)
			}
		})
	}

	if rec := app.do(http.MethodPost, "/api/users/bob/follow", alice.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("follow: expected 204, got %d", rec.Code)
	}
	rec := app.do(http.MethodPost, "/api/users/bob/follow", alice.Token, nil)
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != "ALREADY_FOLLOWING" {
		t.Errorf("expected ALREADY_FOLLOWING conflict, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_LoginRefreshLogout(t *testing.T) {
	app := newTestApp(t)
	app.register("alice", "alice@x.com", "password-1")

	rec := app.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "Alice@X.com", "password": "password-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	login := decodeSession(t, rec)
	if login.refresh == "" {
		t.Fatal("expected refresh cookie on login")
	}

	rec = app.do(http.MethodGet, "/api/me", login.Token, nil)
	var me dto.UserSummary
	_ = json.Unmarshal(rec.Body.Bytes(), &me)
	if rec.Code != http.StatusOK || me.Username != "alice" {
		t.Fatalf("me: unexpected %d %+v", rec.Code, me)
	}

	cookie := &http.Cookie{Name: "refresh_token", Value: login.refresh}
	rec = app.do(http.MethodPost, "/api/auth/refresh", "", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	refreshed := decodeSession(t, rec)
	if refreshed.refresh == "" || refreshed.refresh == login.refresh {
		t.Error("expected refresh to rotate the cookie")
	}

	rec = app.do(http.MethodPost, "/api/auth/refresh", "", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh: expected 401, got %d", rec.Code)
	}

	rec = app.do(http.MethodPost, "/api/auth/logout", refreshed.Token, nil, &http.Cookie{Name: "refresh_token", Value: refreshed.refresh})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	if rec := app.do(http.MethodGet, "/api/me", refreshed.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected revoked access token to be rejected, got %d", rec.Code)
	}
	if rec := app.do(http.MethodPost, "/api/auth/refresh", "", nil, &http.Cookie{Name: "refresh_token", Value: refreshed.refresh}); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected revoked refresh token to be rejected, got %d", rec.Code)
	}

	if rec := app.do(http.MethodGet, "/api/auth/login", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET login, got %d", rec.Code)
	}
}

func TestAdminFlow_SetAdmin(t *testing.T) {
	app := newTestApp(t)

	seed := config.AdminSeed{Username: "root", Email: "root@x.com", Password: "password-0"}
	if err := app.svc.Auth.SeedAdmin(t.Context(), seed); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	app.register("bob", "bob@x.com", "password-2")

	rec := app.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "root@x.com", "password": "password-0"})
	root := decodeSession(t, rec)
	if !root.User.IsAdmin {
		t.Fatal("expected seeded user to be admin")
	}

	rec = app.do(http.MethodPut, "/api/admin/users/bob/admin", root.Token, map[string]bool{"is_admin": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("set admin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var bob dto.UserSummary
	_ = json.Unmarshal(rec.Body.Bytes(), &bob)
	if !bob.IsAdmin {
		t.Error("expected bob to be admin")
	}

	rec = app.do(http.MethodPut, "/api/admin/users/bob/admin", root.Token, map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without is_admin, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health: unexpected %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") == "" {
		t.Error("expected security headers on every response")
	}

	rec = app.do(http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "social_requests_total") {
		t.Errorf("metrics: unexpected %d", rec.Code)
	}
}

func TestNewServices_UsesInjectedHasher(t *testing.T) {
	app := newTestApp(t)
	app.register("dora", "dora@example.com", "password123")

	user, err := app.repos.Users.FindByUsername(t.Context(), "dora")
	if err != nil {
		t.Fatalf("find dora: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	if err != nil {
		t.Fatalf("expected a bcrypt hash, got %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Errorf("expected cost %d, got %d", bcrypt.MinCost, cost)
	}
}

func TestRoutes_WrongMethod(t *testing.T) {
	app := newTestApp(t)

	testCases := []struct {
		method string
		path   string
		allow  string
	}{
		{http.MethodGet, "/api/auth/register", http.MethodPost},
		{http.MethodGet, "/api/auth/login", http.MethodPost},
		{http.MethodPut, "/api/auth/refresh", http.MethodPost},
		{http.MethodDelete, "/api/auth/logout", http.MethodPost},
		{http.MethodGet, "/api/users/alice/follow", http.MethodPost},
		{http.MethodDelete, "/api/posts", http.MethodPost},
		{http.MethodPost, "/api/stream/global", http.MethodGet},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := app.do(tc.method, tc.path, "", nil)
			if rec.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected 405, got %d", rec.Code)
			}
			if allow := rec.Header().Get("Allow"); !strings.Contains(allow, tc.allow) {
				t.Errorf("expected Allow to list %s, got %q", tc.allow, allow)
			}
		})
	}
}
