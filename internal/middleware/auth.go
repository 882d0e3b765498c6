package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/movienight/backend/internal/models"
)

type ctxKey string

const (
	ctxEmail ctxKey = "user_email"
	ctxToken ctxKey = "bearer_token"
)

// WithUser returns a context carrying an authenticated identity: the email
// the token resolved to and the raw token itself.
func WithUser(ctx context.Context, email, token string) context.Context {
	ctx = context.WithValue(ctx, ctxEmail, email)
	return context.WithValue(ctx, ctxToken, token)
}

// UserEmail returns the authenticated user's email bound by RequireAuth,
// or "" if the request never passed the gate.
func UserEmail(ctx context.Context) string {
	v, _ := ctx.Value(ctxEmail).(string)
	return v
}

// BearerToken returns the raw token the request authenticated with. Logout
// needs it to revoke exactly that session.
func BearerToken(ctx context.Context) string {
	v, _ := ctx.Value(ctxToken).(string)
	return v
}

// TokenStore is the token lookup the authentication gate resolves bearer
// tokens through.
type TokenStore interface {
	Lookup(ctx context.Context, token string) (string, error)
}

// UserStore is the user lookup RequireAdmin resolves roles through.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RequireAuth validates the Authorization header against the token store and
// injects the resolved email and raw token into the request context.
func RequireAuth(tokens TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tok, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tok == "" {
				http.Error(w, `{"error":"auth header missing or invalid"}`, http.StatusUnauthorized)
				return
			}

			email, err := tokens.Lookup(r.Context(), tok)
			if err != nil || email == "" {
				http.Error(w, `{"error":"token invalid"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), email, tok)))
		})
	}
}

// RequireAdmin checks the authenticated user's role set for the admin tag.
// It must run after RequireAuth. A token can outlive its user, so a missing
// user record is 404 here, not 401.
func RequireAdmin(users UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := UserEmail(r.Context())
			if email == "" {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByEmail(r.Context(), email)
			if err != nil {
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
				return
			}
			if !user.IsAdmin() {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
