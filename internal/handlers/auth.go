package handlers

import (
	"errors"
	"net/http"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/auth"
	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type AuthHandler struct {
	Store        store.Store
	Tokens       *auth.Tokens
	SecureCookie bool
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
	}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteError(w, r, apierr.Validation("Username or email already exists"))
			return
		}
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}

	logging.Ctx(r.Context()).Info().Int("user_id", user.ID).Msg("User registered")
	httputil.WriteMessage(w, http.StatusCreated, "User created successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := decodeBody(w, r, &creds); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), creds.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteError(w, r, apierr.Unauthorized("Invalid credentials"))
			return
		}
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}

	if err := auth.CheckPassword(user.Password, creds.Password); err != nil {
		httputil.WriteError(w, r, apierr.Unauthorized("Invalid credentials"))
		return
	}

	token, expires, err := h.Tokens.Issue(user.ID)
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}
	http.SetCookie(w, auth.SessionCookie(token, expires, h.SecureCookie))

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearCookie(h.SecureCookie))
	httputil.WriteMessage(w, http.StatusOK, "Logout successful")
}
