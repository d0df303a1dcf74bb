package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/pkg/httpx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

// MFAHandler handles TOTP enrollment and verification.
type MFAHandler struct {
	MFAService       *service.MFAService
	AccountService   *service.AccountService
	AdmissionService *service.AdmissionService
}

type mfaVerifyRequest struct {
	UID    string `json:"uid"`
	Secret string `json:"secret,omitempty"`
	Code   string `json:"code"`
}

type mfaVerifyResponse struct {
	Verified bool   `json:"verified"`
	Route    string `json:"route,omitempty"`
	Role     string `json:"role,omitempty"`
	Token    string `json:"token,omitempty"`
}

type mfaSecretResponse struct {
	OtpAuthURL   string `json:"otpauth_url"`
	Base32Secret string `json:"base32_secret"`
}

// HandleSecret handles GET /v1/mfa/secret?uid=... The secret is returned
// to the client and only persisted once a code verifies against it.
func (h *MFAHandler) HandleSecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	uid := r.URL.Query().Get("uid")
	if uid == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "uid is required")
		return
	}

	acct, err := h.AccountService.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account_not_found", "No such account")
			return
		}
		log.Error("failed to load account", "uid", uid, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	sec, err := h.MFAService.GenerateSecret(ctx, acct.Email)
	if err != nil {
		log.Error("failed to generate totp secret", "uid", uid, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, mfaSecretResponse{
		OtpAuthURL:   sec.OtpAuthURL,
		Base32Secret: sec.Secret,
	})
}

// HandleVerify handles POST /v1/mfa/verify. Success opens the admission
// window and issues the session token for the role route.
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req mfaVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.UID == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "uid and code are required")
		return
	}

	if err := h.MFAService.VerifyCode(ctx, req.UID, req.Secret, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrMFACodeInvalid):
			httpx.NoCache(w)
			httpx.WriteJSON(w, http.StatusBadRequest, mfaVerifyResponse{Verified: false})
		case errors.Is(err, service.ErrMFANoSecret):
			httpx.WriteError(w, http.StatusBadRequest, "mfa_not_enrolled",
				"No TOTP secret enrolled for this account")
		default:
			log.Error("mfa verification failed", "uid", req.UID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error",
				"Internal server error")
		}
		return
	}

	dec, err := h.AdmissionService.AdmitVerified(ctx, req.UID)
	if err != nil {
		writeLoginError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, mfaVerifyResponse{
		Verified: true,
		Route:    dec.Route,
		Role:     string(dec.Role),
		Token:    dec.Token,
	})
}
