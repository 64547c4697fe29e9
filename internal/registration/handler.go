package registration

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rotaworks/workforce-auth/internal/transport"
	"github.com/rotaworks/workforce-auth/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	sessionTTL int
}

func NewHandler(service ServiceAPI, sessionTTLSeconds int) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		sessionTTL:  sessionTTLSeconds,
	}
}

// Verify handles POST /register/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var dto VerifyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Verify: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Service.VerifyDetails(r.Context(), dto, transport.ClientAddr(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, VerifyResponse{
		Token:     token,
		ExpiresIn: h.sessionTTL,
	})
}

// Complete handles POST /register/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var dto CompleteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Complete: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pending, err := h.Service.CompleteRegistration(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := CompleteResponse{PendingApproval: pending}
	if pending {
		resp.Message = "Your registration is awaiting administrator approval."
	} else {
		resp.Message = "Your account has been created. You can now log in."
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}
