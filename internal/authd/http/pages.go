package http

import (
	"net/http"

	"github.com/bhalariaworks/authd/pkg/httpx"
)

// PagesHandler serves the fixed navigation routes as JSON page descriptors.
// The guarded ones only respond once the full admission chain has passed.
type PagesHandler struct{}

type pageResponse struct {
	Page string `json:"page"`
}

func (h *PagesHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, pageResponse{Page: "admin-dashboard"})
}

func (h *PagesHandler) HandleHR(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, pageResponse{Page: "hr-dashboard"})
}

func (h *PagesHandler) HandleEmployee(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, pageResponse{Page: "employee"})
}

func (h *PagesHandler) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusForbidden, pageResponse{Page: "unauthorized"})
}

func (h *PagesHandler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, pageResponse{Page: "setup-2fa"})
}

func (h *PagesHandler) HandleMFAChallenge(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, pageResponse{Page: "mfa-verify"})
}

func (h *PagesHandler) HandleOTPChallenge(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, pageResponse{Page: "verify"})
}

func (h *PagesHandler) HandleLocked(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusLocked, pageResponse{Page: "locked"})
}
