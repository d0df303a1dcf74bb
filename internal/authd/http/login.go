package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/pkg/httpx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

// LoginHandler handles POST /v1/login.
type LoginHandler struct {
	AdmissionService *service.AdmissionService
}

type loginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

type loginResponse struct {
	Route string `json:"route"`
	Role  string `json:"role,omitempty"`
	Token string `json:"token,omitempty"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	dec, err := h.AdmissionService.Login(ctx, req.Email, req.Password, req.CaptchaToken)
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

func writeLoginError(w http.ResponseWriter, log *slog.Logger, err error) {
	var cf *service.CredentialFailureError
	var otpRequired *service.OtpRequiredError

	switch {
	case errors.Is(err, service.ErrBotRejected):
		httpx.WriteError(w, http.StatusForbidden, "captcha_rejected",
			"Captcha verification failed")

	case errors.As(err, &otpRequired):
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":             "otp_required",
			"error_description": "Too many failed attempts, verify the emailed code",
			"route":             domain.RouteOTPChallenge,
		})

	case errors.As(err, &cf):
		remaining := cf.Threshold - cf.Attempts
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":              "invalid_credentials",
			"error_description":  "Invalid email or password",
			"attempts_remaining": remaining,
		})

	case errors.Is(err, service.ErrOtpBlocked):
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusForbidden, map[string]any{
			"error":             "otp_blocked",
			"error_description": "Too many wrong codes, this challenge is locked",
			"route":             domain.RouteLocked,
		})

	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
			"Invalid email or password")

	case errors.Is(err, service.ErrAccountDisabled):
		httpx.WriteError(w, http.StatusForbidden, "account_disabled",
			"This account has been disabled")

	default:
		log.Warn("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Internal server error")
	}
}
