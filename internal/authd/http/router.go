package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/httpx"
	"github.com/bhalariaworks/authd/pkg/jwtx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.Signer
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	AdmissionService *service.AdmissionService
	CaptchaService   *service.CaptchaService
	OtpService       *service.OtpService
	MFAService       *service.MFAService
	AccountService   *service.AccountService
	ResetService     *service.PasswordResetService
}

func NewRouter(
	signer *jwtx.Signer,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     signer,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain. Health endpoints are excluded from
	// the access log so orchestrator polling does not drown it.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz"),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerOtp()
	r.registerMFA()
	r.registerRoles()
	r.registerAdmin()
	r.registerPages()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	captchaHandler := &CaptchaHandler{CaptchaService: r.CaptchaService}
	r.Mux.Handle("POST /v1/captcha/verify",
		httpx.Chain(captchaHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /login - strict rate limit (authentication attempts)
	loginHandler := &LoginHandler{AdmissionService: r.AdmissionService}
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerOtp() {
	h := &OtpHandler{
		OtpService:       r.OtpService,
		AdmissionService: r.AdmissionService,
	}

	r.Mux.Handle("POST /v1/otp/send",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{
		MFAService:       r.MFAService,
		AccountService:   r.AccountService,
		AdmissionService: r.AdmissionService,
	}

	r.Mux.Handle("GET /v1/mfa/secret",
		httpx.Chain(http.HandlerFunc(h.HandleSecret),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerRoles() {
	h := &RolesHandler{AccountService: r.AccountService}

	r.Mux.Handle("POST /v1/roles/lookup",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	resetHandler := &ResetHandler{ResetService: r.ResetService}
	accountsHandler := &AccountsHandler{AccountService: r.AccountService}

	// Self-service endpoint, strict IP limit
	r.Mux.Handle("POST /v1/password/reset",
		httpx.Chain(http.HandlerFunc(resetHandler.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	adminOnly := []httpx.Middleware{
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyRole(string(domain.RoleAdmin), string(domain.RoleSuperAdmin)),
		MFAGuard(r.store),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	}

	r.Mux.Handle("GET /v1/password/resets",
		httpx.Chain(http.HandlerFunc(resetHandler.HandleList), adminOnly...),
	)
	r.Mux.Handle("POST /v1/accounts",
		httpx.Chain(accountsHandler, adminOnly...),
	)
}

// registerPages wires the fixed navigation routes. Every protected page
// re-runs the admission check: token, role, and MFA freshness.
func (r *Router) registerPages() {
	pages := &PagesHandler{}

	guarded := func(h http.Handler, roles ...string) http.Handler {
		return httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyRole(roles...),
			MFAGuard(r.store),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET "+domain.RouteAdmin,
		guarded(http.HandlerFunc(pages.HandleAdmin),
			string(domain.RoleAdmin), string(domain.RoleSuperAdmin)))
	r.Mux.Handle("GET "+domain.RouteHR,
		guarded(http.HandlerFunc(pages.HandleHR), string(domain.RoleHR)))
	r.Mux.Handle("GET "+domain.RouteEmployee,
		guarded(http.HandlerFunc(pages.HandleEmployee), string(domain.RoleEmployee)))

	// Public waypoints of the login flow.
	r.Mux.HandleFunc("GET "+domain.RouteUnauthorized, pages.HandleUnauthorized)
	r.Mux.HandleFunc("GET "+domain.RouteMFASetup, pages.HandleMFASetup)
	r.Mux.HandleFunc("GET "+domain.RouteMFAChallenge, pages.HandleMFAChallenge)
	r.Mux.HandleFunc("GET "+domain.RouteOTPChallenge, pages.HandleOTPChallenge)
	r.Mux.HandleFunc("GET "+domain.RouteLocked, pages.HandleLocked)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer))
}
