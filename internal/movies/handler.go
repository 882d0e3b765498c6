package movies

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/movienight/backend/internal/middleware"
	"github.com/movienight/backend/internal/models"
	"github.com/movienight/backend/internal/store"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// MovieStore defines the interface for suggestion and watchlist persistence.
type MovieStore interface {
	InsertSuggestion(ctx context.Context, sug *models.Suggestion) (*models.Suggestion, error)
	ListSuggestions(ctx context.Context) ([]models.Suggestion, error)
	GetSuggestion(ctx context.Context, id string) (*models.Suggestion, error)
	UpdateSuggestion(ctx context.Context, id string, upd *models.MovieUpdate) (*models.Suggestion, error)
	DeleteSuggestion(ctx context.Context, id string) error

	InsertMovie(ctx context.Context, m *models.Movie) (*models.Movie, error)
	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, id string) (*models.Movie, error)
	UpdateMovie(ctx context.Context, id string, upd *models.MovieUpdate) (*models.Movie, error)
	DeleteMovie(ctx context.Context, id string) error
	SearchMovies(ctx context.Context, query string) ([]models.Movie, error)
}

// UserStore resolves the authenticated email to a full user record, for
// owner stamping and the ownership check.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler holds suggestion and watchlist HTTP handlers.
type Handler struct {
	store    MovieStore
	users    UserStore
	validate *validator.Validate
}

func NewHandler(store MovieStore, users UserStore) *Handler {
	return &Handler{store: store, users: users, validate: validator.New()}
}

// caller resolves the request's authenticated user. The token may outlive
// the user record, so a miss is 404.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) *models.User {
	user, err := h.users.GetUserByEmail(r.Context(), middleware.UserEmail(r.Context()))
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return nil
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return nil
	}
	return user
}

// ── Suggestions ──────────────────────────────────────────

// CreateSuggestion creates a candidate entry owned by the caller. The owner
// always comes from the session; a caller-supplied owner is never honored.
func (h *Handler) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	var req models.MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, `{"error":"title, description, and year are required"}`, http.StatusBadRequest)
		return
	}

	user := h.caller(w, r)
	if user == nil {
		return
	}

	sug, err := h.store.InsertSuggestion(r.Context(), &models.Suggestion{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Year:        req.Year,
		Runtime:     req.Runtime,
		Rating:      req.Rating,
		Watched:     req.Watched,
		OwnerID:     user.ID,
	})
	if err != nil {
		log.Printf("insert suggestion error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

// ListSuggestions returns every suggestion, unfiltered.
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	sugs, err := h.store.ListSuggestions(r.Context())
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if sugs == nil {
		sugs = []models.Suggestion{}
	}
	writeJSON(w, http.StatusOK, sugs)
}

// GetSuggestion returns one suggestion. An absent entry answers 400 on
// read paths; existing clients depend on that status.
func (h *Handler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	sug, err := h.store.GetSuggestion(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if sug == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

// UpdateSuggestion lets the owner, and only the owner, edit a suggestion.
func (h *Handler) UpdateSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd models.MovieUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if upd.Empty() {
		http.Error(w, `{"error":"suggestion entry is required"}`, http.StatusBadRequest)
		return
	}

	sug, err := h.store.GetSuggestion(r.Context(), id)
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if sug == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	user := h.caller(w, r)
	if user == nil {
		return
	}
	if sug.OwnerID != user.ID {
		http.Error(w, `{"error":"user does not match suggestion"}`, http.StatusForbidden)
		return
	}

	updated, err := h.store.UpdateSuggestion(r.Context(), id, &upd)
	if err != nil {
		log.Printf("update suggestion error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSuggestion removes a suggestion. Admin-only; deleting an id that is
// already gone still answers 200.
func (h *Handler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteSuggestion(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Accept promotes a suggestion onto the watchlist: a copy without id and
// owner is inserted first, then the suggestion is deleted. The two steps are
// not atomic; a failure after the insert leaves a visible duplicate rather
// than losing the entry, so the delete failure is logged, not surfaced.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sug, err := h.store.GetSuggestion(r.Context(), id)
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if sug == nil {
		http.Error(w, `{"error":"suggestion not found"}`, http.StatusNotFound)
		return
	}

	movie, err := h.store.InsertMovie(r.Context(), &models.Movie{
		Title:       sug.Title,
		Description: sug.Description,
		Genre:       sug.Genre,
		Year:        sug.Year,
		Runtime:     sug.Runtime,
		Rating:      sug.Rating,
		Watched:     sug.Watched,
	})
	if err != nil {
		log.Printf("accept: insert movie error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.store.DeleteSuggestion(r.Context(), id); err != nil {
		log.Printf("accept: suggestion %s promoted but not deleted: %v", id, err)
	}
	writeJSON(w, http.StatusOK, movie)
}

// ── Watchlist ────────────────────────────────────────────

// CreateMovie adds a watchlist entry directly. Admin-only.
func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var req models.MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, `{"error":"title, description, and year are required"}`, http.StatusBadRequest)
		return
	}

	movie, err := h.store.InsertMovie(r.Context(), &models.Movie{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Year:        req.Year,
		Runtime:     req.Runtime,
		Rating:      req.Rating,
		Watched:     req.Watched,
	})
	if err != nil {
		log.Printf("insert movie error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// ListMovies returns the whole watchlist.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.store.ListMovies(r.Context())
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	writeJSON(w, http.StatusOK, movies)
}

// GetMovie returns one watchlist entry, with the same 400-on-absent answer
// as GetSuggestion.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := h.store.GetMovie(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if movie == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// UpdateMovie edits a watchlist entry. Admin-only; there is no owner.
func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	var upd models.MovieUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if upd.Empty() {
		http.Error(w, `{"error":"watchlist entry is required"}`, http.StatusBadRequest)
		return
	}

	movie, err := h.store.UpdateMovie(r.Context(), chi.URLParam(r, "id"), &upd)
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("update movie error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if movie == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// DeleteMovie removes a watchlist entry. Admin-only, idempotent.
func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteMovie(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Search runs a relevance-ranked text search over the watchlist. page and
// perPage are accepted for compatibility but not applied; the store caps
// results at its own limit.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return
	}
	_ = r.URL.Query().Get("page")
	_ = r.URL.Query().Get("perPage")

	movies, err := h.store.SearchMovies(r.Context(), query)
	if err != nil {
		log.Printf("search error: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	writeJSON(w, http.StatusOK, movies)
}
