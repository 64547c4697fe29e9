package permissions

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/transport"
	"github.com/rotaworks/workforce-auth/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func principalFrom(r *http.Request) (Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok || p == nil {
		return Principal{}, false
	}
	return Principal{
		AccountID:       p.AccountID,
		WorkforceUserID: p.WorkforceUserID,
		IsAdmin:         p.IsAdmin,
	}, true
}

// MyPermissions handles GET /users/me/permissions.
func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	keys, err := h.Service.AllGranted(principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GrantedResponse{Permissions: keys})
}

// UserCan handles GET /users/me/permissions/{key}.
func (h *Handler) UserCan(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	key := chi.URLParam(r, "key")
	granted, err := h.Service.UserCan(principal, key)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UserCanResponse{Key: key, Granted: granted})
}

// Register handles POST /admin/permissions.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.RegisterPermission(dto.Key, dto.Name, dto.Description, dto.AppName)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

// List handles GET /admin/permissions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.URL.Query().Get("app"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, perms)
}

// Delete handles DELETE /admin/permissions/{key}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePermission(chi.URLParam(r, "key")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GrantDepartment handles POST /admin/departments/{departmentID}/permissions.
func (h *Handler) GrantDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := strconv.ParseInt(chi.URLParam(r, "departmentID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	var dto GrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.GrantToDepartment(departmentID, dto.Key); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]string{"status": "granted"})
}

// RevokeDepartment handles DELETE /admin/departments/{departmentID}/permissions/{key}.
func (h *Handler) RevokeDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := strconv.ParseInt(chi.URLParam(r, "departmentID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	if err := h.Service.RevokeFromDepartment(departmentID, chi.URLParam(r, "key")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// ListDepartmentGrants handles GET /admin/departments/{departmentID}/permissions.
func (h *Handler) ListDepartmentGrants(w http.ResponseWriter, r *http.Request) {
	departmentID, err := strconv.ParseInt(chi.URLParam(r, "departmentID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	grants, err := h.Service.ListDepartmentGrants(departmentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, grants)
}

// SetOverride handles PUT /admin/users/{workforceUserID}/permissions.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	workforceUserID, err := strconv.ParseInt(chi.URLParam(r, "workforceUserID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var dto OverrideDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SetOverride(workforceUserID, dto.Key, dto.Granted); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "set"})
}

// ClearOverride handles DELETE /admin/users/{workforceUserID}/permissions/{key}.
func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	workforceUserID, err := strconv.ParseInt(chi.URLParam(r, "workforceUserID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.Service.ClearOverride(workforceUserID, chi.URLParam(r, "key")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// ListOverrides handles GET /admin/users/{workforceUserID}/permissions.
func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	workforceUserID, err := strconv.ParseInt(chi.URLParam(r, "workforceUserID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	overrides, err := h.Service.ListOverrides(workforceUserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, overrides)
}
