package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/internal/authd/store/drivers/sqlite"
	"github.com/bhalariaworks/authd/pkg/cryptox"
	"github.com/bhalariaworks/authd/pkg/idx"
	"github.com/bhalariaworks/authd/pkg/jwtx"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "authd-http-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

type stubCaptcha struct {
	success bool
	score   float64
}

func (s *stubCaptcha) Verify(ctx context.Context, token string) (service.CaptchaResult, error) {
	return service.CaptchaResult{Success: s.success, Score: s.score}, nil
}

type stubMailer struct {
	codes []string
}

func (m *stubMailer) SendLoginOTP(email, code string) error {
	m.codes = append(m.codes, code)
	return nil
}

func (m *stubMailer) SendPasswordResetNotice(email string) error { return nil }

type testEnv struct {
	router *Router
	store  *sqlite.Store
	signer *jwtx.Signer
	mailer *stubMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSigner()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	mailer := &stubMailer{}
	captcha := &service.CaptchaService{Verifier: &stubCaptcha{success: true, score: 0.9}}
	otp := &service.OtpService{Store: st, Mailer: mailer}
	admission := &service.AdmissionService{
		Store:   st,
		Captcha: captcha,
		Otp:     otp,
		Signer:  signer,
		Issuer:  "authd-test",
	}

	r := NewRouter(signer, "authd-test", "test", st, logger)
	r.AdmissionService = admission
	r.CaptchaService = captcha
	r.OtpService = otp
	r.MFAService = &service.MFAService{Store: st, Issuer: "authd-test"}
	r.AccountService = &service.AccountService{Store: st}
	r.ResetService = &service.PasswordResetService{Store: st, Mailer: mailer}
	r.ApplyRoutes()

	return &testEnv{router: r, store: st, signer: signer, mailer: mailer}
}

func (e *testEnv) seed(t *testing.T, email, password string, role domain.Role, mfaEnabled bool) domain.Account {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		MFAEnabled:   mfaEnabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Accounts().CreateAccount(context.Background(), acct))
	return acct
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("successful login returns token and role route", func(t *testing.T) {
		env := newTestEnv(t)
		env.seed(t, "alice@example.com", "right-password-1", domain.RoleHR, false)

		rec := env.do(t, http.MethodPost, "/v1/login", map[string]string{
			"email":         "alice@example.com",
			"password":      "right-password-1",
			"captcha_token": "tok",
		}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		decode(t, rec, &resp)
		require.Equal(t, domain.RouteHR, resp.Route)
		require.Equal(t, "hr", resp.Role)
		require.NotEmpty(t, resp.Token)
	})

	t.Run("captcha rejection is 403", func(t *testing.T) {
		env := newTestEnv(t)
		env.seed(t, "alice@example.com", "right-password-1", domain.RoleHR, false)
		env.router.AdmissionService.Captcha = &service.CaptchaService{
			Verifier: &stubCaptcha{success: true, score: 0.2},
		}

		rec := env.do(t, http.MethodPost, "/v1/login", map[string]string{
			"email":         "alice@example.com",
			"password":      "right-password-1",
			"captcha_token": "tok",
		}, "")
		require.Equal(t, http.StatusForbidden, rec.Code)

		var resp map[string]any
		decode(t, rec, &resp)
		require.Equal(t, "captcha_rejected", resp["error"])
	})

	t.Run("wrong password reports attempts remaining", func(t *testing.T) {
		env := newTestEnv(t)
		env.seed(t, "alice@example.com", "right-password-1", domain.RoleHR, false)

		rec := env.do(t, http.MethodPost, "/v1/login", map[string]string{
			"email":         "alice@example.com",
			"password":      "wrong",
			"captcha_token": "tok",
		}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp map[string]any
		decode(t, rec, &resp)
		require.Equal(t, "invalid_credentials", resp["error"])
		require.EqualValues(t, 2, resp["attempts_remaining"])
	})

	t.Run("third failure redirects to otp route", func(t *testing.T) {
		env := newTestEnv(t)
		env.seed(t, "alice@example.com", "right-password-1", domain.RoleHR, false)

		body := map[string]string{
			"email":         "alice@example.com",
			"password":      "wrong",
			"captcha_token": "tok",
		}
		env.do(t, http.MethodPost, "/v1/login", body, "")
		env.do(t, http.MethodPost, "/v1/login", body, "")
		rec := env.do(t, http.MethodPost, "/v1/login", body, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp map[string]any
		decode(t, rec, &resp)
		require.Equal(t, "otp_required", resp["error"])
		require.Equal(t, domain.RouteOTPChallenge, resp["route"])
		require.Len(t, env.mailer.codes, 1)
	})

	t.Run("mfa enabled account routes to setup without token", func(t *testing.T) {
		env := newTestEnv(t)
		env.seed(t, "bob@example.com", "right-password-1", domain.RoleEmployee, true)

		rec := env.do(t, http.MethodPost, "/v1/login", map[string]string{
			"email":         "bob@example.com",
			"password":      "right-password-1",
			"captcha_token": "tok",
		}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		decode(t, rec, &resp)
		require.Equal(t, domain.RouteMFASetup, resp.Route)
		require.Empty(t, resp.Token)
	})
}

func TestOtpEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "carol@example.com", "right-password-1", domain.RoleEmployee, false)

	rec := env.do(t, http.MethodPost, "/v1/otp/send", map[string]string{
		"email": "carol@example.com",
	}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, env.mailer.codes, 1)

	t.Run("wrong code is 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/otp/verify", map[string]string{
			"email": "carol@example.com",
			"otp":   "000000",
		}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("correct code admits", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/otp/verify", map[string]string{
			"email": "carol@example.com",
			"otp":   env.mailer.codes[0],
		}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		decode(t, rec, &resp)
		require.Equal(t, domain.RouteEmployee, resp.Route)
		require.NotEmpty(t, resp.Token)
	})
}

func TestMFAEndpoints(t *testing.T) {
	env := newTestEnv(t)
	acct := env.seed(t, "dave@example.com", "right-password-1", domain.RoleAdmin, true)

	rec := env.do(t, http.MethodGet, "/v1/mfa/secret?uid="+acct.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var secretResp mfaSecretResponse
	decode(t, rec, &secretResp)
	require.NotEmpty(t, secretResp.Base32Secret)
	require.Contains(t, secretResp.OtpAuthURL, "otpauth://totp/")

	t.Run("wrong code is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/mfa/verify", map[string]string{
			"uid":    acct.ID,
			"secret": secretResp.Base32Secret,
			"code":   "000000",
		}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp mfaVerifyResponse
		decode(t, rec, &resp)
		require.False(t, resp.Verified)
	})

	t.Run("unknown uid is 404 on secret", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/mfa/secret?uid=missing", nil, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGuardedPages(t *testing.T) {
	env := newTestEnv(t)

	adminAcct := env.seed(t, "admin@example.com", "right-password-1", domain.RoleAdmin, false)
	hrAcct := env.seed(t, "hr@example.com", "right-password-1", domain.RoleHR, false)

	tokenFor := func(t *testing.T, acct domain.Account) string {
		t.Helper()
		claims := jwtx.NewSessionClaims(acct.ID, acct.Email, string(acct.Role),
			[]string{domain.AMRPassword}, time.Hour, "authd-test", time.Now().UTC())
		token, err := env.signer.Sign(claims)
		require.NoError(t, err)
		return token
	}

	t.Run("no token is 401", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, domain.RouteAdmin, nil, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role is 403", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, domain.RouteAdmin, nil, tokenFor(t, hrAcct))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("right role passes", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, domain.RouteAdmin, nil, tokenFor(t, adminAcct))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("hr reaches hr dashboard", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, domain.RouteHR, nil, tokenFor(t, hrAcct))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("lapsed mfa window blocks navigation", func(t *testing.T) {
		ctx := context.Background()
		acct := env.seed(t, "erin@example.com", "right-password-1", domain.RoleEmployee, true)
		require.NoError(t, env.store.Accounts().SetMFASecret(ctx, acct.ID, "JBSWY3DPEHPK3PXP"))
		require.NoError(t, env.store.Accounts().SetMFAVerified(ctx, acct.ID, time.Now().UTC().Add(-time.Minute)))

		rec := env.do(t, http.MethodGet, domain.RouteEmployee, nil, tokenFor(t, acct))
		require.Equal(t, http.StatusForbidden, rec.Code)

		var resp map[string]any
		decode(t, rec, &resp)
		require.Equal(t, "mfa_required", resp["error"])
	})

	t.Run("fresh mfa window passes", func(t *testing.T) {
		ctx := context.Background()
		acct := env.seed(t, "frank@example.com", "right-password-1", domain.RoleEmployee, true)
		require.NoError(t, env.store.Accounts().SetMFASecret(ctx, acct.ID, "JBSWY3DPEHPK3PXP"))
		require.NoError(t, env.store.Accounts().SetMFAVerified(ctx, acct.ID, time.Now().UTC().Add(time.Hour)))

		rec := env.do(t, http.MethodGet, domain.RouteEmployee, nil, tokenFor(t, acct))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminAcct := env.seed(t, "admin@example.com", "right-password-1", domain.RoleAdmin, false)
	env.seed(t, "emp@example.com", "old-password-11", domain.RoleEmployee, false)

	adminClaims := jwtx.NewSessionClaims(adminAcct.ID, adminAcct.Email, string(adminAcct.Role),
		[]string{domain.AMRPassword}, time.Hour, "authd-test", time.Now().UTC())
	adminToken, err := env.signer.Sign(adminClaims)
	require.NoError(t, err)

	t.Run("password reset then audit listing", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/password/reset", map[string]string{
			"email":        "emp@example.com",
			"new_password": "new-password-22",
		}, "")
		require.Equal(t, http.StatusAccepted, rec.Code)

		rec = env.do(t, http.MethodGet, "/v1/password/resets", nil, adminToken)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Resets []resetAuditEntry `json:"resets"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Resets, 1)
		require.Equal(t, "emp@example.com", resp.Resets[0].Email)
	})

	t.Run("audit listing requires admin", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/password/resets", nil, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("account creation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/accounts", map[string]any{
			"email":    "new@example.com",
			"password": "long-enough-pw",
			"role":     "HR",
		}, adminToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp createAccountResponse
		decode(t, rec, &resp)
		require.Equal(t, "new@example.com", resp.Email)
		require.Equal(t, "hr", resp.Role)
	})

	t.Run("account creation rejects unknown role", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/accounts", map[string]any{
			"email":    "x@example.com",
			"password": "long-enough-pw",
			"role":     "contractor",
		}, adminToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCaptchaEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/captcha/verify", map[string]string{"token": "tok"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp captchaResponse
	decode(t, rec, &resp)
	require.True(t, resp.Verified)
	require.InDelta(t, 0.9, resp.Score, 0.0001)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	decode(t, rec, &resp)
	require.Equal(t, "ok", resp.Status)
}
