// Package middleware provides the HTTP middleware chain: request logging and
// the session-based authentication gate.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/readingroom/bookreviews/internal/app/domain/user"
	"github.com/readingroom/bookreviews/internal/session"
	"github.com/readingroom/bookreviews/pkg/logger"
)

type contextKey string

const userKey contextKey = "current_user"

// UserResolver loads a user row by id. Satisfied by the users service.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// CurrentUser resolves the session's user_id on every request and binds the
// user row into the request context. A session that references a deleted user
// is treated as anonymous; the stale bag is left in place so the behaviour is
// indistinguishable from a logged-out client.
func CurrentUser(sessions *session.Manager, users UserResolver, log *logger.Logger) mux.MiddlewareFunc {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Get(r)
			if sess.UserID() == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := users.GetByID(r.Context(), sess.UserID())
			if errors.Is(err, sql.ErrNoRows) {
				log.WithField("user_id", sess.UserID()).Debug("session references missing user")
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				log.WithError(err).Error("current user lookup failed")
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom extracts the bound user from the context, nil when anonymous.
func UserFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey).(*user.User)
	return u
}

// RequireUser short-circuits anonymous requests with a redirect to the login
// page; the wrapped handler never runs for them.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
