package http

import (
	"encoding/json"
	"net/http"

	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/pkg/httpx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

// RolesHandler handles POST /v1/roles/lookup.
type RolesHandler struct {
	AccountService *service.AccountService
}

type roleLookupRequest struct {
	UID string `json:"uid"`
}

type roleLookupResponse struct {
	Role  string `json:"role"`
	Route string `json:"route"`
}

func (h *RolesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req roleLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.UID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "uid is required")
		return
	}

	role, route, err := h.AccountService.LookupRole(ctx, req.UID)
	if err != nil {
		log.Error("role lookup failed", "uid", req.UID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, roleLookupResponse{
		Role:  string(role),
		Route: route,
	})
}
