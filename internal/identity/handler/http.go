// Package handler exposes the auth service over HTTP under /api/v1/users.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"streamline/backend/internal/identity/service"
	"streamline/backend/internal/platform/respond"
	"streamline/backend/internal/server/middleware"
)

// RefreshTokenCookie is the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// Handler serves the user and session endpoints.
type Handler struct {
	auth       *service.AuthService
	production bool
	writeErr   respond.ErrorWriter
}

// New returns a Handler. production sets Secure on cookies and hides error detail.
func New(auth *service.AuthService, production bool, log *slog.Logger) *Handler {
	return &Handler{auth: auth, production: production, writeErr: respond.Errors(log, production)}
}

// ErrorWriter returns the writer used for failures, for middleware that must
// answer in the same envelope.
func (h *Handler) ErrorWriter() respond.ErrorWriter { return h.writeErr }

// Routes registers the endpoints on r. requireAuth guards the protected ones.
func (h *Handler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh-token", h.RefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)
		r.Get("/current-user", h.CurrentUser)
		r.Patch("/update-account", h.UpdateAccount)
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         any    `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.Success(w, http.StatusCreated, "User registered successfully", user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	loginKey := req.Email
	if strings.TrimSpace(loginKey) == "" {
		loginKey = req.Username
	}
	res, err := h.auth.Login(r.Context(), loginKey, req.Password)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.setSessionCookies(w, res)
	respond.Success(w, http.StatusOK, "User logged in successfully", sessionResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// RefreshToken reads the refresh token from its cookie, falling back to the
// JSON body.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(c.Value)
	}
	if token == "" {
		var req refreshRequest
		if err := respond.Decode(w, r, &req); err != nil {
			h.writeErr(w, r, err)
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	res, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.setSessionCookies(w, res)
	respond.Success(w, http.StatusOK, "Access token refreshed", sessionResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.UserID(r.Context())); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.expireCookie(w, middleware.AccessTokenCookie)
	h.expireCookie(w, RefreshTokenCookie)
	respond.Success(w, http.StatusOK, "User logged out", struct{}{})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := respond.Decode(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), middleware.UserID(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Password changed successfully", struct{}{})
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.writeErr(w, r, middleware.ErrUnauthorizedAccess)
		return
	}
	respond.Success(w, http.StatusOK, "Current user fetched successfully", user)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := respond.Decode(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	user, err := h.auth.UpdateAccount(r.Context(), middleware.UserID(r.Context()), req.FullName, req.Email)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, "Account details updated successfully", user)
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, res *service.AuthResult) {
	h.setCookie(w, middleware.AccessTokenCookie, res.AccessToken, res.AccessExpiresAt)
	h.setCookie(w, RefreshTokenCookie, res.RefreshToken, res.RefreshExpiresAt)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
}
