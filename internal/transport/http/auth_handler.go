package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dov-vai/PuzzApi/internal/errs"
	"github.com/dov-vai/PuzzApi/internal/repository"
	"github.com/dov-vai/PuzzApi/internal/service"
	"github.com/dov-vai/PuzzApi/pkg/httputil"
)

type AuthHandler struct {
	auth          *service.AuthService
	secureCookies bool
}

func NewAuthHandler(auth *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookies: secureCookies}
}

// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			httputil.Error(w, http.StatusConflict, "username already taken")
		case errors.Is(err, errs.ErrPasswordTooShort), errors.Is(err, errs.ErrInvalidUsername):
			httputil.Error(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("handler.Register:", slog.Any("err", err))
			httputil.Error(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	httputil.OK(w, UserInfo{Username: req.Username})
}

// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password, loginMeta(r))
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.Error("handler.Login:", slog.Any("err", err))
		httputil.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	setTokenCookies(w, res.AccessToken, res.RefreshToken, h.auth.AccessTTL(), h.auth.RefreshTTL(), h.secureCookies)
	httputil.OK(w, UserInfo{Username: res.User.Username})
}

// GET /refresh-token — ротация пары по refresh-cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(cookieRefreshToken)
	if err != nil || cookie.Value == "" {
		httputil.Error(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	res, err := h.auth.Refresh(r.Context(), cookie.Value, loginMeta(r))
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) || errors.Is(err, errs.ErrSessionExpired) {
			clearTokenCookies(w, h.secureCookies)
			httputil.Error(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		slog.Error("handler.Refresh:", slog.Any("err", err))
		httputil.Error(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	setTokenCookies(w, res.AccessToken, res.RefreshToken, h.auth.AccessTTL(), h.auth.RefreshTTL(), h.secureCookies)
	httputil.OK(w, nil)
}

// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieRefreshToken); err == nil && cookie.Value != "" {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("handler.Logout:", slog.Any("err", err))
		}
	}

	clearTokenCookies(w, h.secureCookies)
	httputil.OK(w, nil)
}

func loginMeta(r *http.Request) *service.LoginMeta {
	ua := r.UserAgent()
	if ua == "" {
		return nil
	}
	return &service.LoginMeta{UserAgent: &ua}
}
