package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/movienight/backend/internal/auth"
	"github.com/movienight/backend/internal/middleware"
	"github.com/movienight/backend/internal/models"
)

func newTokenStore(t *testing.T) *auth.TokenStore {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return auth.NewTokenStore(rdb)
}

func TestRequireAuth(t *testing.T) {
	tokens := newTokenStore(t)
	tok, err := tokens.Create(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	var gotEmail, gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = middleware.UserEmail(r.Context())
		gotToken = middleware.BearerToken(r.Context())
	})
	handler := middleware.RequireAuth(tokens)(next)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + tok, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer deadbeef", http.StatusUnauthorized},
		{"valid", "Bearer " + tok, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}

	if gotEmail != "a@x.com" || gotToken != tok {
		t.Fatalf("context carried (%q, %q), want (a@x.com, %q)", gotEmail, gotToken, tok)
	}
}

type stubUsers struct {
	users map[string]*models.User
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.users[email], nil
}

func TestRequireAdmin(t *testing.T) {
	users := &stubUsers{users: map[string]*models.User{
		"admin@x.com":  {ID: "1", Email: "admin@x.com", Roles: []string{"user", "admin"}},
		"user@x.com":   {ID: "2", Email: "user@x.com", Roles: []string{"user"}},
		"norole@x.com": {ID: "3", Email: "norole@x.com"},
	}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := middleware.RequireAdmin(users)(next)

	cases := []struct {
		name   string
		email  string
		status int
	}{
		{"admin passes", "admin@x.com", http.StatusOK},
		{"plain user forbidden", "user@x.com", http.StatusForbidden},
		{"missing role set forbidden", "norole@x.com", http.StatusForbidden},
		// A token can reference a deleted user; that is 404, not 401.
		{"deleted user", "gone@x.com", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			req = req.WithContext(middleware.WithUser(req.Context(), tc.email, "tok"))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestRequireAdmin_NoAuth(t *testing.T) {
	handler := middleware.RequireAdmin(&stubUsers{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
