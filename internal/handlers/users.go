package handlers

import (
	"errors"
	"net/http"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/auth"
	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/middleware"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=2048"`
}

type SavePostRequest struct {
	PostID int `json:"postId" validate:"required,gt=0"`
}

type UserHandler struct {
	Store        store.Store
	SecureCookie bool
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	user, err := h.Store.GetUserByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, storeError(err, "User not found"))
		return
	}
	if id != middleware.UserID(r.Context()) {
		user.Email = ""
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// self resolves the {id} path parameter and requires it to be the requester.
func self(r *http.Request) (int, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return 0, err
	}
	if id != middleware.UserID(r.Context()) {
		return 0, apierr.Forbidden("Not authorized")
	}
	return id, nil
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := self(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	upd := models.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Avatar:   req.Avatar,
	}
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			httputil.WriteError(w, r, apierr.Internal(err))
			return
		}
		upd.Password = &hashed
	}

	user, err := h.Store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteError(w, r, apierr.Validation("Username or email already exists"))
			return
		}
		httputil.WriteError(w, r, storeError(err, "User not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := self(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.Store.DeleteUser(r.Context(), id); err != nil {
		httputil.WriteError(w, r, storeError(err, "User not found"))
		return
	}

	logging.Ctx(r.Context()).Info().Int("user_id", id).Msg("User deleted")
	http.SetCookie(w, auth.ClearCookie(h.SecureCookie))
	httputil.WriteMessage(w, http.StatusOK, "User deleted")
}

func (h *UserHandler) SavePost(w http.ResponseWriter, r *http.Request) {
	var req SavePostRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	saved, err := h.Store.ToggleSavedPost(r.Context(), middleware.UserID(r.Context()), req.PostID)
	if err != nil {
		httputil.WriteError(w, r, storeError(err, "Post not found"))
		return
	}

	msg := "Post removed from saved list"
	if saved {
		msg = "Post saved"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"saved":   saved,
		"message": msg,
	})
}

func (h *UserHandler) ProfilePosts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	userPosts, err := h.Store.ListUserPosts(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}
	savedPosts, err := h.Store.ListSavedPosts(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"userPosts":  userPosts,
		"savedPosts": savedPosts,
	})
}

// Notifications returns the number of the requester's chats with unread messages.
func (h *UserHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.CountUnseenChats(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}
