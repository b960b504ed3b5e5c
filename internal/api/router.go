// Package api wires the HTTP surface of the analysis service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sells-group/equity-research/internal/api/handler"
	mw "github.com/sells-group/equity-research/internal/api/middleware"
)

// Options tunes router construction.
type Options struct {
	// AllowedOrigins configures CORS. Empty disables cross-origin access.
	AllowedOrigins []string
	Version        string
}

// NewRouter builds the chi router with the middleware stack and all routes.
func NewRouter(svc handler.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/api/v1/health", handler.NewHealthHandler(opts.Version))

	r.Post("/api/v1/analyses", handler.NewSubmitHandler(svc))
	r.Get("/api/v1/analyses", handler.NewListJobsHandler(svc))
	r.Get("/api/v1/analyses/{jobID}", handler.NewJobStatusHandler(svc))

	r.Get("/api/v1/reports", handler.NewListReportsHandler(svc))
	r.Get("/api/v1/reports/{jobID}", handler.NewGetReportHandler(svc))
	r.Get("/api/v1/reports/{jobID}/download", handler.NewDownloadReportHandler(svc))

	return r
}
