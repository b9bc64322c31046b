// Package httpapi assembles the service router: middleware chain, API
// routes and artifact file serving.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/IshanjotDhahan7868/BeatBank/internal/http/handlers"
	"github.com/IshanjotDhahan7868/BeatBank/internal/middleware"
)

// Options tune the router around the handler set.
type Options struct {
	// ArtifactDir is served read-only under /artifacts/. Empty disables
	// the route; generated URLs then need an external file server.
	ArtifactDir    string
	AllowedOrigins []string
	Logger         zerolog.Logger

	// GenerateLimit caps generation requests per client and window.
	// Zero runs without a limiter.
	GenerateLimit  int
	GenerateWindow time.Duration
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.GenerateLimit > 0 {
				window := opts.GenerateWindow
				if window <= 0 {
					window = time.Minute
				}
				r.Use(middleware.RateLimit(opts.GenerateLimit, window))
			}
			r.Post("/generate", app.Generate)
			r.Post("/generate/async", app.GenerateAsync)
		})

		r.Get("/runs/{run_id}", app.RunStatus)
		r.Delete("/runs/{run_id}", app.RunCancel)

		r.Get("/history", app.HistoryList)
		r.Get("/detail/{id}", app.HistoryDetail)
		r.Get("/detail/{id}/bundle", app.HistoryBundle)
	})

	if opts.ArtifactDir != "" {
		fileServer := http.StripPrefix("/artifacts/", http.FileServer(http.Dir(opts.ArtifactDir)))
		r.Handle("/artifacts/*", fileServer)
	}

	return r
}
