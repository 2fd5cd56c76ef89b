package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"equiptrack-api/internal/auth"
	"equiptrack-api/internal/config"
	"equiptrack-api/internal/handlers"
	"equiptrack-api/internal/notify"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Server struct {
	DB      *sql.DB
	Pool    *pgxpool.Pool
	Router  *chi.Mux
	JWT     *auth.JWTManager
	Metrics *Metrics
	Hub     *notify.Hub
}

func NewServer(dsn string, cfg *config.Config) *Server {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Database ping failed:", err)
	}

	// Also create a pgxpool for the importer
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal("Failed to create pgxpool:", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatal("JWT configuration validation failed:", err)
	}

	s := &Server{
		DB:      db,
		Pool:    pool,
		Router:  chi.NewRouter(),
		JWT:     jwtManager,
		Metrics: NewMetrics(),
		Hub:     notify.NewHub(),
	}

	// Mount public routes FIRST (no middleware)
	s.Router.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.Router.Get("/dbping", func(w http.ResponseWriter, r *http.Request) {
		if err := s.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		if _, err := w.Write([]byte("db: ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	// Public auth routes (no JWT required)
	s.Router.Post("/api/auth/register", s.registerUser)
	s.Router.Post("/api/auth/login", s.loginUser)

	// Websocket clients authenticate in-band with room actions only, so the
	// endpoint stays outside the JWT group
	s.Router.Get("/ws", s.Hub.ServeWS)

	// Mount metrics if enabled
	if os.Getenv("ENABLE_METRICS") == "true" {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Create a protected route group with middleware
	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWT))
		s.mountProtectedRoutes(r)
	})

	return s
}

// Close properly shuts down the server and cleans up resources
func (s *Server) Close(ctx context.Context) error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// mountProtectedRoutes mounts all routes that require authentication
func (s *Server) mountProtectedRoutes(r chi.Router) {
	r.Post("/api/auth/logout", s.logoutUser)
	r.Get("/api/auth/me", s.getMe)

	// Equipment - admin role for write operations
	r.Get("/api/equipment", s.listEquipment)
	r.Get("/api/equipment/{id}", s.getEquipment)
	r.Put("/api/equipment/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateEquipment)).(http.HandlerFunc))
	r.Delete("/api/equipment/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteEquipment)).(http.HandlerFunc))

	// Spreadsheet import, template and export
	importsHandler := handlers.NewImportsHandler(s.Pool, s.DB)
	importsHandler.RowsImported = s.Metrics.RecordImport
	importsHandler.FileRejected = s.Metrics.RecordImportRejected
	if path := os.Getenv("IMPORT_ALIASES"); path != "" {
		importsHandler.AliasPath = path
	}
	r.Post("/api/equipment/import", auth.MustRole("admin")(http.HandlerFunc(importsHandler.UploadExcel)).(http.HandlerFunc))
	r.Get("/api/equipment/template", auth.MustRole("admin")(http.HandlerFunc(importsHandler.DownloadTemplate)).(http.HandlerFunc))
	r.Get("/api/equipment/export", importsHandler.ExportEquipment)

	// Comments
	r.Get("/api/comments/equipment/{id}", s.listComments)
	r.Post("/api/comments", s.addComment)
	r.Delete("/api/comments/{id}", s.deleteComment)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
