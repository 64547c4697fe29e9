package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/permissions"
)

// RequireAdmin rejects requests whose principal is not an administrator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok || principal == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !principal.IsAdmin {
			slog.Warn("access denied: administrator required",
				"account_id", principal.AccountID,
				"path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission resolves one permission key for the request principal and
// rejects the request unless it is granted.
func RequirePermission(service permissions.ServiceAPI, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok || p == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			granted, err := service.UserCan(permissions.Principal{
				AccountID:       p.AccountID,
				WorkforceUserID: p.WorkforceUserID,
				IsAdmin:         p.IsAdmin,
			}, key)
			if err != nil {
				slog.Error("permission check failed",
					"account_id", p.AccountID,
					"key", key,
					"error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !granted {
				slog.Warn("access denied: permission not granted",
					"account_id", p.AccountID,
					"key", key)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
