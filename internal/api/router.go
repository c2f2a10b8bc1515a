package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/keywarden/keywarden/internal/auth"
	"github.com/keywarden/keywarden/internal/version"
)

// NewRouter assembles the full HTTP surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	if len(d.Cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.Cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	limiter := NewRateLimiter(d.Cfg.RateLimitPerMinute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "version": "` + version.Version + `"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/anonymous", auth.AnonymousHandler(d.DB, d.Cfg))
		r.Get("/login", auth.LoginHandler(d.Cfg))
		r.Get("/callback", auth.CallbackHandler(d.DB, d.Cfg, d.Provider))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/consent", GrantConsentHandler(d))
		r.Delete("/consent", RevokeConsentHandler(d))
		r.Get("/consent", ConsentStatusHandler(d))
		r.Get("/workflows", WorkflowsHandler(d))
	})

	return r
}
