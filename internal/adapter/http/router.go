package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	APIToken       string
	MaxPackageSize int64
}

func NewRouter(publishH *PublishHandler, buildH *BuildHandler, packageH *PackageHandler, cfg RouterConfig) http.Handler {
	packageLimit := cfg.MaxPackageSize
	if packageLimit <= 0 {
		packageLimit = maxRequestBodySize
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware(cfg.APIToken))

		r.Route("/environments/{env}", func(r chi.Router) {
			r.With(bodySizeLimitMiddleware(packageLimit)).Post("/publish", publishH.Publish)
			r.With(bodySizeLimitMiddleware(maxRequestBodySize)).Get("/packages/{name}", packageH.Get)
		})

		// Builds
		r.Route("/builds", func(r chi.Router) {
			r.Use(bodySizeLimitMiddleware(maxRequestBodySize))
			r.Get("/", buildH.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", buildH.Get)
				r.Get("/log", buildH.GetLog)
			})
		})
	})

	return r
}
