package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/pkg/httpx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

// ResetHandler handles password reset and its admin-facing audit listing.
type ResetHandler struct {
	ResetService *service.PasswordResetService
}

type resetRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type resetAuditEntry struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleReset handles POST /v1/password/reset.
func (h *ResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"email and new_password are required")
		return
	}

	if err := h.ResetService.Reset(ctx, req.Email, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			// Same response as success so the endpoint cannot be used to
			// probe which emails exist.
			w.WriteHeader(http.StatusAccepted)
			return
		}
		log.Error("password reset failed", "email", req.Email, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Internal server error")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleList handles GET /v1/password/resets (admin only).
func (h *ResetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	audits, err := h.ResetService.RecentAudits(ctx, limit)
	if err != nil {
		log.Error("failed to list reset audits", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Internal server error")
		return
	}

	entries := make([]resetAuditEntry, 0, len(audits))
	for _, a := range audits {
		entries = append(entries, resetAuditEntry{
			ID:        a.ID,
			AccountID: a.AccountID,
			Email:     a.Email,
			CreatedAt: a.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"resets": entries})
}
