package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/pkg/httpx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

// AccountsHandler handles POST /v1/accounts (admin only).
type AccountsHandler struct {
	AccountService *service.AccountService
}

type createAccountRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

type createAccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *AccountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	role := domain.ParseRole(req.Role)
	if role == domain.RoleUnknown {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_role",
			"role must be one of employee, hr, admin, super-admin")
		return
	}

	acct, err := h.AccountService.Create(ctx, service.CreateParams{
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		MFAEnabled: req.MFAEnabled,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, "email_taken",
				"An account with this email already exists")
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, "weak_password",
				"Password does not meet the minimum length")
		default:
			log.Error("account creation failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error",
				"Internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, createAccountResponse{
		ID:    acct.ID,
		Email: acct.Email,
		Role:  string(acct.Role),
	})
}
