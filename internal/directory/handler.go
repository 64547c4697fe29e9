package directory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

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

// Sync handles POST /admin/sync.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.SyncAll(r.Context())
	if err != nil {
		h.Logger.Error("Sync: directory sync failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

// ListDepartments handles GET /departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, departments)
}

// Members handles GET /departments/{departmentID}/members.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	departmentID, err := strconv.ParseInt(chi.URLParam(r, "departmentID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	members, err := h.Service.DepartmentMembers(departmentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, members)
}

// EmployeeDepartments handles GET /users/{workforceUserID}/departments.
func (h *Handler) EmployeeDepartments(w http.ResponseWriter, r *http.Request) {
	workforceUserID, err := strconv.ParseInt(chi.URLParam(r, "workforceUserID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	departments, err := h.Service.DepartmentsForEmployee(workforceUserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, departments)
}
