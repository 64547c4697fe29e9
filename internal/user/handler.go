package user

import (
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

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.Service.Me(principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

// ListPending handles GET /admin/registrations.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Service.ListPendingRegistrations()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, pending)
}

// Approve handles POST /admin/registrations/{workforceID}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	workforceID, err := strconv.ParseInt(chi.URLParam(r, "workforceID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid workforce ID")
		return
	}

	if err := h.Service.ApproveRegistration(workforceID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// Reject handles POST /admin/registrations/{workforceID}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	workforceID, err := strconv.ParseInt(chi.URLParam(r, "workforceID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid workforce ID")
		return
	}

	if err := h.Service.RejectRegistration(workforceID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
