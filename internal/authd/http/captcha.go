package http

import (
	"encoding/json"
	"net/http"

	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/pkg/httpx"
)

// CaptchaHandler handles POST /v1/captcha/verify.
type CaptchaHandler struct {
	CaptchaService *service.CaptchaService
}

type captchaRequest struct {
	Token string `json:"token"`
}

type captchaResponse struct {
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
}

func (h *CaptchaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req captchaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	dec := h.CaptchaService.Check(r.Context(), req.Token)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, captchaResponse{
		Verified: dec.Verified,
		Score:    dec.Score,
	})
}
