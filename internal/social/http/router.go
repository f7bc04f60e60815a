package http

import (
	"net/http"
	"strconv"
	"time"

	authservice "github.com/AlibekovAA/social-stream/backend/internal/auth/service"
	"github.com/AlibekovAA/social-stream/backend/internal/common/dto"
	commonhttp "github.com/AlibekovAA/social-stream/backend/internal/common/http"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/common/mapper"
	feedservice "github.com/AlibekovAA/social-stream/backend/internal/feed/service"
	graphservice "github.com/AlibekovAA/social-stream/backend/internal/graph/service"
	postservice "github.com/AlibekovAA/social-stream/backend/internal/post/service"
	"github.com/AlibekovAA/social-stream/backend/internal/session"
)

type createPostRequest struct {
	Content string `json:"content"`
}

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

type streamResponse struct {
	Kind  string     `json:"kind"`
	Posts []dto.Post `json:"posts"`
}

type usersResponse struct {
	Users []dto.UserSummary `json:"users"`
}

type Deps struct {
	Auth    *authservice.AuthService
	Graph   *graphservice.GraphService
	Posts   *postservice.PostService
	Feed    *feedservice.FeedService
	Timeout time.Duration
	Logger  *logger.Logger
}

type Handler struct {
	auth  *authservice.AuthService
	graph *graphservice.GraphService
	posts *postservice.PostService
	feed  *feedservice.FeedService
	log   *logger.Logger
}

// Register mounts the social routes on mux. Every route reads the identity
// that session.Middleware stored on the request.
func Register(mux *http.ServeMux, deps Deps) {
	h := &Handler{
		auth:  deps.Auth,
		graph: deps.Graph,
		posts: deps.Posts,
		feed:  deps.Feed,
		log:   deps.Logger,
	}
	withTimeout := commonhttp.WithTimeout(deps.Timeout)

	mux.HandleFunc("GET /api/me", withTimeout(h.me))
	mux.HandleFunc("GET /api/stream", withTimeout(h.stream))
	mux.HandleFunc("GET /api/stream/global", withTimeout(h.globalStream))

	mux.HandleFunc("GET /api/users/{username}/posts", withTimeout(h.userPosts))
	mux.HandleFunc("GET /api/users/{username}/following", withTimeout(h.following))
	mux.HandleFunc("GET /api/users/{username}/followers", withTimeout(h.followers))
	mux.HandleFunc("GET /api/users/{username}/relation", withTimeout(h.relation))
	mux.HandleFunc("POST /api/users/{username}/follow", withTimeout(h.follow))
	mux.HandleFunc("DELETE /api/users/{username}/follow", withTimeout(h.unfollow))

	mux.HandleFunc("POST /api/posts", withTimeout(h.createPost))
	mux.HandleFunc("GET /api/posts/{id}", withTimeout(h.getPost))

	mux.HandleFunc("PUT /api/admin/users/{username}/admin", withTimeout(h.setAdmin))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := session.FromContext(r.Context()).RequireAuthenticated()
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, mapper.UserSummaryToDTO(user))
}

// stream serves the personal stream, or the global one to anonymous callers.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context()).CurrentUser()
	if !ok {
		h.globalStream(w, r)
		return
	}

	posts, err := h.feed.StreamFor(r.Context(), user.ID, limitParam(r))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, streamResponse{Kind: "personal", Posts: mapper.PostsToDTO(posts)})
}

func (h *Handler) globalStream(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.GlobalStream(r.Context(), limitParam(r))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, streamResponse{Kind: "global", Posts: mapper.PostsToDTO(posts)})
}

func (h *Handler) userPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.StreamOf(r.Context(), r.PathValue("username"), limitParam(r))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, streamResponse{Kind: "user", Posts: mapper.PostsToDTO(posts)})
}

func (h *Handler) following(w http.ResponseWriter, r *http.Request) {
	users, err := h.graph.Following(r.Context(), r.PathValue("username"))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, usersResponse{Users: mapper.UserSummariesToDTO(users)})
}

func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	users, err := h.graph.Followers(r.Context(), r.PathValue("username"))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, usersResponse{Users: mapper.UserSummariesToDTO(users)})
}

func (h *Handler) relation(w http.ResponseWriter, r *http.Request) {
	user, err := session.FromContext(r.Context()).RequireAuthenticated()
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	rel, err := h.graph.Relation(r.Context(), user.ID, r.PathValue("username"))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, mapper.RelationToDTO(rel))
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	user, err := session.FromContext(r.Context()).RequireAuthenticated()
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	if err := h.graph.Follow(r.Context(), user.ID, r.PathValue("username")); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	user, err := session.FromContext(r.Context()).RequireAuthenticated()
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	if err := h.graph.Unfollow(r.Context(), user.ID, r.PathValue("username")); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	user, err := session.FromContext(r.Context()).RequireAuthenticated()
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	var req createPostRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), user.ID, req.Content)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusCreated, mapper.PostToDTO(post))
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, mapper.PostToDTO(post))
}

func (h *Handler) setAdmin(w http.ResponseWriter, r *http.Request) {
	actor, err := session.FromContext(r.Context()).RequireAdmin()
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	var req setAdminRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	user, err := h.auth.SetAdmin(r.Context(), r.PathValue("username"), *req.IsAdmin)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	h.log.WithFields(r.Context(), logger.Fields{
		"actor_id": string(actor.ID),
		"user_id":  string(user.ID),
		"action":   "admin_flag_updated",
	}).Info("admin flag updated")
	commonhttp.WriteJSON(w, http.StatusOK, mapper.UserSummaryToDTO(user.Summary()))
}

// limitParam reads ?limit=; anything unparsable means "use the default".
func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
