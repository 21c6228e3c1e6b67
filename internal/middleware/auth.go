package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/auth"
	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// UserLookup confirms that a token's subject still has an account.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// Authenticator resolves the session cookie into a user id.
type Authenticator struct {
	Tokens *auth.Tokens
	Users  UserLookup
}

// Require rejects requests without a valid, unexpired session token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" {
			httputil.WriteError(w, r, apierr.Unauthorized("Not authenticated"))
			return
		}

		userID, err := a.Tokens.Verify(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected session token")
			httputil.WriteError(w, r, apierr.Unauthorized("Token is not valid"))
			return
		}

		if _, err := a.Users.GetUserByID(r.Context(), userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httputil.WriteError(w, r, apierr.Unauthorized("User no longer exists"))
				return
			}
			httputil.WriteError(w, r, apierr.Internal(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// Optional attaches the user id when a valid token is present and never rejects.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := auth.TokenFromRequest(r); token != "" {
			if userID, err := a.Tokens.Verify(token); err == nil {
				if _, err := a.Users.GetUserByID(r.Context(), userID); err == nil {
					r = r.WithContext(WithUserID(r.Context(), userID))
				} else if !errors.Is(err, store.ErrNotFound) {
					logging.Ctx(r.Context()).Warn().Err(err).Int("user_id", userID).Msg("Session user lookup failed")
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(ctx context.Context) int {
	id, _ := ctx.Value(UserIDKey).(int)
	return id
}
