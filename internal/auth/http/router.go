package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/social-stream/backend/internal/auth/service"
	"github.com/AlibekovAA/social-stream/backend/internal/common/dto"
	commonhttp "github.com/AlibekovAA/social-stream/backend/internal/common/http"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/common/mapper"
	"github.com/AlibekovAA/social-stream/backend/internal/session"
)

const refreshCookieName = "refresh_token"

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string          `json:"token"`
	User  dto.UserSummary `json:"user"`
}

type Handler struct {
	auth    *service.AuthService
	log     *logger.Logger
	timeout time.Duration
}

// Register mounts the /api/auth routes on mux.
func Register(mux *http.ServeMux, auth *service.AuthService, timeout time.Duration, log *logger.Logger) {
	h := &Handler{auth: auth, log: log, timeout: timeout}
	withTimeout := commonhttp.WithTimeout(h.timeout)

	mux.HandleFunc("POST /api/auth/register", withTimeout(h.register))
	mux.HandleFunc("POST /api/auth/login", withTimeout(h.login))
	mux.HandleFunc("POST /api/auth/refresh", withTimeout(h.refresh))
	mux.HandleFunc("POST /api/auth/logout", withTimeout(h.logout))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	setRefreshCookie(w, r, result.RefreshToken, result.RefreshExpiresAt)
	commonhttp.WriteJSON(w, http.StatusCreated, tokenResponse{
		Token: result.AccessToken,
		User:  mapper.UserSummaryToDTO(result.User),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"client_ip": commonhttp.GetClientIP(r),
			"action":    "login_rejected",
		}).Debugf("login rejected: %v", err)
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	setRefreshCookie(w, r, result.RefreshToken, result.RefreshExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{
		Token: result.AccessToken,
		User:  mapper.UserSummaryToDTO(result.User),
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingRefreshToken, "missing refresh token", nil, commonhttp.TraceIDFromContext(r.Context()))
		return
	}

	result, err := h.auth.RefreshAccessToken(r.Context(), cookie.Value)
	if err != nil {
		clearRefreshCookie(w, r)
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	setRefreshCookie(w, r, result.RefreshToken, result.RefreshExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{
		Token: result.AccessToken,
		User:  mapper.UserSummaryToDTO(result.User),
	})
}

// logout revokes whatever the caller presents: the refresh cookie and, when
// authenticated, the access token. It always succeeds from the client's view.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if err := h.auth.RevokeRefreshToken(ctx, cookie.Value); err != nil {
			h.log.WithFields(ctx, logger.Fields{
				"action": "logout_revoke_refresh_failed",
			}).Errorf("logout revoke failed: %v", err)
		}
	}

	if claims, ok := session.FromContext(ctx).Token(); ok {
		if err := h.auth.RevokeAccessToken(ctx, claims); err != nil {
			h.log.WithFields(ctx, logger.Fields{
				"user_id": claims.UserID,
				"action":  "logout_revoke_access_failed",
			}).Errorf("logout revoke failed: %v", err)
		}
	}

	clearRefreshCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func setRefreshCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	if token == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
}

func clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
}
