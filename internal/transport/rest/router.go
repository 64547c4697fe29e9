package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/directory"
	"github.com/rotaworks/workforce-auth/internal/permissions"
	"github.com/rotaworks/workforce-auth/internal/registration"
	"github.com/rotaworks/workforce-auth/internal/transport/middleware"
	"github.com/rotaworks/workforce-auth/internal/transport/swagger"
	"github.com/rotaworks/workforce-auth/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Registration *registration.Handler
	Permissions  *permissions.Handler
	Directory    *directory.Handler
	Upstream     UpstreamPinger
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, h.Upstream)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
			})
		}

		// Self-registration routes, unauthenticated and rate limited inside
		// the service
		if h.Registration != nil {
			r.Route("/register", func(sr chi.Router) {
				sr.Post("/verify", h.Registration.Verify)
				sr.Post("/complete", h.Registration.Complete)
			})
		}

		if h.Auth == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.Me)
			}

			if h.Permissions != nil {
				pr.Get("/users/me/permissions", h.Permissions.MyPermissions)
				pr.Get("/users/me/permissions/{key}", h.Permissions.UserCan)
			}

			if h.Directory != nil {
				pr.Get("/departments", h.Directory.ListDepartments)
				pr.Get("/departments/{departmentID}/members", h.Directory.Members)
			}

			// Administrative routes
			pr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireAdmin)

				if h.User != nil {
					ar.Get("/admin/registrations", h.User.ListPending)
					ar.Post("/admin/registrations/{workforceID}/approve", h.User.Approve)
					ar.Post("/admin/registrations/{workforceID}/reject", h.User.Reject)
				}

				if h.Directory != nil {
					ar.Post("/admin/sync", h.Directory.Sync)
					ar.Get("/admin/users/{workforceUserID}/departments", h.Directory.EmployeeDepartments)
				}

				if h.Permissions != nil {
					ar.Route("/admin/permissions", func(pmr chi.Router) {
						pmr.Post("/", h.Permissions.Register)
						pmr.Get("/", h.Permissions.List)
						pmr.Delete("/{key}", h.Permissions.Delete)
					})
					ar.Route("/admin/departments/{departmentID}/permissions", func(pmr chi.Router) {
						pmr.Post("/", h.Permissions.GrantDepartment)
						pmr.Get("/", h.Permissions.ListDepartmentGrants)
						pmr.Delete("/{key}", h.Permissions.RevokeDepartment)
					})
					ar.Route("/admin/users/{workforceUserID}/permissions", func(pmr chi.Router) {
						pmr.Put("/", h.Permissions.SetOverride)
						pmr.Get("/", h.Permissions.ListOverrides)
						pmr.Delete("/{key}", h.Permissions.ClearOverride)
					})
				}
			})
		})
	})
}
