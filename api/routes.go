package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/storage"
)

// aliasPrefix mirrors every /api route for deployments that rewrite the
// back-office API under /api/bo.
const aliasPrefix = "/api/bo"

// setupPageRoutes serves the admin pages. /admin and /admin/create need a
// valid token; the login and viewer pages do not.
func setupPageRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Get("/", handlers.adminHandler.root())
	r.Get("/admin/login", handlers.adminHandler.loginPage())
	r.Get("/admin/viewer", handlers.adminHandler.page("index.html"))

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.requirePage)
		r.Get("/admin", handlers.adminHandler.page("index.html"))
		r.Get("/admin/create", handlers.adminHandler.page("create.html"))
	})
}

// setupAPIRoutes is the single route table for /api. The alias layer makes
// it reachable under /api/bo as well.
func setupAPIRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, connector *database.Connector) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.adminHandler.health())

		r.Post("/auth/login", handlers.authHandler.login())
		r.Post("/auth/logout", handlers.authHandler.logout())
		r.Get("/auth/check", handlers.authHandler.check())

		r.Group(func(r chi.Router) {
			r.Use(ensureDatabase(connector))

			r.Get("/projects", handlers.projectHandler.getAllProjects())
			r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
			r.Get("/projects/{projectID}/files", handlers.projectHandler.listProjectFiles())
			r.Get("/projects/{projectID}/files/{filename}", handlers.projectHandler.downloadProjectFile())

			r.Post("/visitors", handlers.visitorHandler.recordVisit())
			r.Get("/visitors/stats", handlers.visitorHandler.visitorStats())
			r.Get("/visitors", handlers.visitorHandler.listVisitors())

			r.Post("/contacts", handlers.contactHandler.createContact())
			r.Get("/contacts", handlers.contactHandler.getAllContacts())

			// Authenticated routes
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.requireAPI)

				r.Post("/projects", handlers.projectHandler.createProject())
				r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
				r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())

				r.Put("/contacts/{contactID}/read", handlers.contactHandler.markContactRead())
				r.Delete("/contacts/{contactID}", handlers.contactHandler.deleteContact())

				r.Post("/migrate/projects", handlers.migrateHandler.migrateProjects())
			})
		})
	})
}

// setupUploadRoutes serves locally stored uploads read-only under their URL
// prefix. Other backends hand out their own public URLs.
func setupUploadRoutes(r chi.Router, files storage.Storage) {
	local, ok := files.(*storage.LocalStorage)
	if !ok {
		return
	}
	prefix := local.URLPrefix()
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(local.BaseDir())))
	r.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fileServer.ServeHTTP(w, r)
	})
}
