package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/movienight/backend/internal/auth"
	"github.com/movienight/backend/internal/config"
	"github.com/movienight/backend/internal/middleware"
	"github.com/movienight/backend/internal/models"
	"github.com/movienight/backend/internal/movies"
	"github.com/movienight/backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ───────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	tokens := auth.NewTokenStore(rdb)

	// No endpoint mints an admin, so grant the role to a configured
	// account at boot if it exists.
	if cfg.AdminEmail != "" {
		granted, err := pgStore.GrantRole(ctx, cfg.AdminEmail, models.RoleAdmin)
		if err != nil {
			log.Fatalf("grant admin: %v", err)
		}
		if granted {
			log.Printf("granted admin to %s", cfg.AdminEmail)
		}
	}

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(pgStore, tokens, cfg.BcryptCost)
	movieHandler := movies.NewHandler(mongoStore, pgStore)

	requireAuth := middleware.RequireAuth(tokens)
	requireAdmin := middleware.RequireAdmin(pgStore)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Put("/password", authHandler.ChangePassword)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
	})

	r.Route("/suggestions", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", movieHandler.CreateSuggestion)
		r.Get("/", movieHandler.ListSuggestions)
		r.Get("/{id}", movieHandler.GetSuggestion)
		r.Put("/{id}", movieHandler.UpdateSuggestion)
		r.With(requireAdmin).Delete("/{id}", movieHandler.DeleteSuggestion)
		r.With(requireAdmin).Post("/accept/{id}", movieHandler.Accept)
	})

	r.Route("/watchlist", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", movieHandler.ListMovies)
		r.Get("/search", movieHandler.Search)
		r.Get("/{id}", movieHandler.GetMovie)
		r.With(requireAdmin).Post("/", movieHandler.CreateMovie)
		r.With(requireAdmin).Put("/{id}", movieHandler.UpdateMovie)
		r.With(requireAdmin).Delete("/{id}", movieHandler.DeleteMovie)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
