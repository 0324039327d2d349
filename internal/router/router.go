package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/curator-cms/curator/internal/middleware"
	"github.com/curator-cms/curator/internal/middleware/metrics"
	"github.com/curator-cms/curator/internal/setup"
)

// New creates and configures the chi router with all routes.
func New(deps *setup.Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// JSON API only, no scripts/styles needed
	apiCSP := "default-src 'none'; frame-ancestors 'none'"
	r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, apiCSP))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	// Only the public storage root is mounted; protected files stay outside
	// the web-visible namespace.
	publicFiles := http.StripPrefix("/storage/", http.FileServer(http.Dir(deps.PublicStorageRoot)))
	r.Handle("/storage/*", publicFiles)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		// Everything else is the admin surface.
		r.Group(func(r chi.Router) {
			r.Use(authMw.AdminOnly())

			r.Route("/owners/{kind}/{id}/relations/{field}", func(r chi.Router) {
				r.Get("/plan", h.RelationPlan)
				r.Post("/refresh", h.RelationRefresh)

				r.Get("/attachments", h.ListAttachments)
				r.Post("/attachments", h.UploadAttachment)
				r.Post("/attachments/from_url", h.CreateAttachmentFromURL)
				r.Post("/attachments/{attachment}/binding", h.AddAttachment)
				r.Delete("/attachments/{attachment}/binding", h.RemoveAttachment)
			})

			r.Route("/attachments/{attachment}", func(r chi.Router) {
				r.Get("/", h.GetAttachment)
				r.Get("/content", h.StreamAttachment)
				r.Get("/thumb", h.AttachmentVariant)
				r.Delete("/", h.DeleteAttachment)
			})

			r.Post("/bindings/{session}/commit", h.CommitBindings)
			r.Delete("/bindings/{session}", h.DiscardBindings)
		})
	})

	return r
}
