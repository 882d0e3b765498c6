package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/movienight/backend/internal/auth"
	"github.com/movienight/backend/internal/middleware"
	"github.com/movienight/backend/internal/models"
	"github.com/movienight/backend/internal/store"
)

// memUsers is an in-memory UserStore with the same miss and duplicate
// semantics as the postgres store.
type memUsers struct {
	mu      sync.Mutex
	seq     int
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, email, hashedPw string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return nil, store.ErrDuplicateEmail
	}
	m.seq++
	u := &models.User{
		ID:        fmt.Sprintf("u%d", m.seq),
		Email:     email,
		Password:  hashedPw,
		Roles:     []string{models.RoleUser},
		CreatedAt: time.Now(),
	}
	m.byEmail[email] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byEmail[email], nil
}

func (m *memUsers) UpdatePassword(_ context.Context, email, hashedPw string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return false, nil
	}
	u.Password = hashedPw
	return true, nil
}

func newHandler(t *testing.T) (*auth.Handler, *memUsers, *auth.TokenStore) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rdb.Close() })

	users := newMemUsers()
	tokens := auth.NewTokenStore(rdb)
	return auth.NewHandler(users, tokens, bcrypt.MinCost), users, tokens
}

func postJSON(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSignup(t *testing.T) {
	h, _, _ := newHandler(t)

	rec := postJSON(h.Signup, "/auth/signup", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(h.Signup, "/auth/signup", `{"email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, []string{"user"}, u.Roles)
	assert.NotEmpty(t, u.ID)

	// Same email again is a conflict, not a second account.
	rec = postJSON(h.Signup, "/auth/signup", `{"email":"a@x.com","password":"p2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	h, _, tokens := newHandler(t)
	postJSON(h.Signup, "/auth/signup", `{"email":"a@x.com","password":"p1"}`)

	// Unknown email and wrong password must be indistinguishable.
	recUnknown := postJSON(h.Login, "/auth/login", `{"email":"nobody@x.com","password":"p1"}`)
	recWrong := postJSON(h.Login, "/auth/login", `{"email":"a@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, recUnknown.Body.String(), recWrong.Body.String())

	rec := postJSON(h.Login, "/auth/login", `{"email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// The token resolves back to exactly the user that logged in.
	email, err := tokens.Lookup(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestLogin_MissingFields(t *testing.T) {
	h, _, _ := newHandler(t)
	rec := postJSON(h.Login, "/auth/login", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword(t *testing.T) {
	h, users, _ := newHandler(t)
	postJSON(h.Signup, "/auth/signup", `{"email":"a@x.com","password":"p1"}`)

	do := func(email, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/auth/password", bytes.NewBufferString(body))
		req = req.WithContext(middleware.WithUser(req.Context(), email, "tok"))
		rec := httptest.NewRecorder()
		h.ChangePassword(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, do("a@x.com", `{"password":""}`).Code)
	assert.Equal(t, http.StatusNotFound, do("gone@x.com", `{"password":"p2"}`).Code)

	require.Equal(t, http.StatusOK, do("a@x.com", `{"password":"p2"}`).Code)
	u, _ := users.GetUserByEmail(context.Background(), "a@x.com")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("p2")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("p1")))
}

func TestLogout(t *testing.T) {
	h, _, tokens := newHandler(t)
	tok, err := tokens.Create(context.Background(), "a@x.com")
	require.NoError(t, err)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), "a@x.com", tok))
		rec := httptest.NewRecorder()
		h.Logout(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)

	email, err := tokens.Lookup(context.Background(), tok)
	require.NoError(t, err)
	assert.Empty(t, email, "token must be gone after logout")

	// The session is already gone; a second logout finds nothing.
	assert.Equal(t, http.StatusNotFound, do().Code)
}
