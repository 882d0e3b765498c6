package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/movienight/backend/internal/middleware"
	"github.com/movienight/backend/internal/models"
	"github.com/movienight/backend/internal/store"
)

// UserStore defines the interface for credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, hashedPw string) (bool, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	tokens   *TokenStore
	cost     int
	validate *validator.Validate
}

// NewHandler wires the auth endpoints. cost is the bcrypt work factor,
// kept low in tests and raised via config elsewhere.
func NewHandler(users UserStore, tokens *TokenStore, cost int) *Handler {
	return &Handler{
		users:    users,
		tokens:   tokens,
		cost:     cost,
		validate: validator.New(),
	}
}

// Signup creates a new user with the default role set.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, `{"error":"both email and password are required"}`, http.StatusBadRequest)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			http.Error(w, `{"error":"duplicate"}`, http.StatusConflict)
			return
		}
		log.Printf("create user error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Login verifies credentials and mints a bearer token keyed by the user's
// email. A missing user and a wrong password answer identically so the
// endpoint can't be used to probe which emails exist.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, `{"error":"both email and password are required"}`, http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("login lookup error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	tok, err := h.tokens.Create(r.Context(), user.Email)
	if err != nil {
		log.Printf("token create error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.TokenResponse{Token: tok})
}

// ChangePassword rehashes and overwrites the password of the authenticated
// user.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, `{"error":"password is required"}`, http.StatusBadRequest)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	ok, err := h.users.UpdatePassword(r.Context(), middleware.UserEmail(r.Context()), string(hashed))
	if err != nil {
		log.Printf("update password error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"password updated"}`))
}

// Logout revokes exactly the token this request authenticated with. Other
// sessions of the same user stay valid.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ok, err := h.tokens.Revoke(r.Context(), middleware.BearerToken(r.Context()))
	if err != nil {
		log.Printf("token revoke error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"token not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"logged out"}`))
}
