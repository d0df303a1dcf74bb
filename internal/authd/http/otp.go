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

// OtpHandler handles the emailed one-time code endpoints.
type OtpHandler struct {
	OtpService       *service.OtpService
	AdmissionService *service.AdmissionService
}

type otpSendRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// HandleSend handles POST /v1/otp/send.
func (h *OtpHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.OtpService.Issue(ctx, req.Email); err != nil {
		log.Error("failed to issue otp", "email", req.Email, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Failed to send verification code")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleVerify handles POST /v1/otp/verify. A correct code completes
// primary authentication and the response carries the admission outcome.
func (h *OtpHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Otp == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and otp are required")
		return
	}

	if err := h.OtpService.Verify(ctx, req.Email, req.Otp); err != nil {
		switch {
		case errors.Is(err, service.ErrOtpBlocked):
			httpx.NoCache(w)
			httpx.WriteJSON(w, http.StatusForbidden, map[string]any{
				"error":             "otp_blocked",
				"error_description": "Too many wrong codes, this challenge is locked",
				"route":             domain.RouteLocked,
			})
		case errors.Is(err, service.ErrOtpExpired):
			httpx.WriteError(w, http.StatusBadRequest, "otp_expired",
				"The code has expired, request a new one")
		case errors.Is(err, service.ErrOtpInvalid):
			httpx.WriteError(w, http.StatusBadRequest, "otp_invalid",
				"The code is not valid")
		default:
			log.Error("otp verification failed", "email", req.Email, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error",
				"Internal server error")
		}
		return
	}

	dec, err := h.AdmissionService.CompleteOTP(ctx, req.Email)
	if err != nil {
		writeLoginError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Route: dec.Route,
		Role:  string(dec.Role),
		Token: dec.Token,
	})
}
