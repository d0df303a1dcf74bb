package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/cryptox"
	"github.com/bhalariaworks/authd/pkg/idx"
	"github.com/bhalariaworks/authd/pkg/jwtx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

const (
	// DefaultLockoutThreshold is the number of consecutive credential
	// failures that escalates a login to the email OTP path.
	DefaultLockoutThreshold = 3

	// DefaultLockoutWindow bounds how far back failures are counted.
	DefaultLockoutWindow = 15 * time.Minute

	// DefaultMFAWindow is how long a TOTP verification keeps follow-up
	// logins from being challenged again.
	DefaultMFAWindow = 24 * time.Hour
)

var (
	ErrBotRejected        = errors.New("captcha_rejected")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountDisabled    = errors.New("account_disabled")
)

// CredentialFailureError carries the running failure count so callers can
// tell the user how close they are to the OTP escalation.
type CredentialFailureError struct {
	Attempts  int
	Threshold int
}

func (e *CredentialFailureError) Error() string {
	return fmt.Sprintf("invalid credentials (%d/%d attempts)", e.Attempts, e.Threshold)
}

func (e *CredentialFailureError) Unwrap() error { return ErrInvalidCredentials }

// OtpRequiredError signals that the login hit the failure threshold and an
// email challenge was issued (or is still live) for the account.
type OtpRequiredError struct {
	Email string
}

func (e *OtpRequiredError) Error() string { return "otp verification required" }

// AdmissionService drives the login state machine from the CAPTCHA gate
// through credentials, the lockout escalation and the MFA decision, ending
// in a signed session token and a destination route.
type AdmissionService struct {
	Store   store.Store
	Captcha *CaptchaService
	Otp     *OtpService
	Signer  *jwtx.Signer
	Issuer  string

	SessionTTL       time.Duration
	LockoutThreshold int
	LockoutWindow    time.Duration
	MFAWindow        time.Duration
}

// sessionTTL never exceeds the MFA window, so a token cannot outlive the
// second-factor grant it was issued under.
func (s *AdmissionService) sessionTTL() time.Duration {
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}
	if w := s.mfaWindow(); ttl > w {
		ttl = w
	}
	return ttl
}

func (s *AdmissionService) lockoutThreshold() int {
	if s.LockoutThreshold <= 0 {
		return DefaultLockoutThreshold
	}
	return s.LockoutThreshold
}

func (s *AdmissionService) lockoutWindow() time.Duration {
	if s.LockoutWindow <= 0 {
		return DefaultLockoutWindow
	}
	return s.LockoutWindow
}

func (s *AdmissionService) mfaWindow() time.Duration {
	if s.MFAWindow <= 0 {
		return DefaultMFAWindow
	}
	return s.MFAWindow
}

// Login runs the full admission sequence for an email/password pair. The
// captcha token is checked before credentials are ever consulted.
func (s *AdmissionService) Login(ctx context.Context, email, password, captchaToken string) (domain.AdmissionDecision, error) {
	log := slogx.FromContext(ctx)

	gate := s.Captcha.Check(ctx, captchaToken)
	if !gate.Verified {
		log.Warn("login rejected at captcha gate", "email", email, "score", gate.Score)
		return domain.AdmissionDecision{}, ErrBotRejected
	}

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AdmissionDecision{}, s.recordFailure(ctx, email)
		}
		return domain.AdmissionDecision{}, err
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		return domain.AdmissionDecision{}, s.recordFailure(ctx, email)
	}

	// Disabled accounts fail like any other bad credential so the
	// response never reveals account status.
	if acct.Disabled {
		return domain.AdmissionDecision{}, s.recordFailure(ctx, email)
	}

	if err := s.Store.LoginAttempts().ClearAttempts(ctx, email); err != nil {
		return domain.AdmissionDecision{}, err
	}

	return s.admit(ctx, acct, domain.AMRPassword)
}

// CompleteOTP admits a login once the email challenge has been answered.
// The failure counter resets so the next bad password starts from zero.
func (s *AdmissionService) CompleteOTP(ctx context.Context, email string) (domain.AdmissionDecision, error) {
	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AdmissionDecision{}, ErrInvalidCredentials
		}
		return domain.AdmissionDecision{}, err
	}

	if acct.Disabled {
		return domain.AdmissionDecision{}, s.recordFailure(ctx, email)
	}

	if err := s.Store.LoginAttempts().ClearAttempts(ctx, email); err != nil {
		return domain.AdmissionDecision{}, err
	}

	return s.admit(ctx, acct, domain.AMROTP)
}

// recordFailure books the failed attempt and, at the threshold, issues the
// email challenge exactly once. While a live challenge exists further
// failures redirect to it without sending another code.
func (s *AdmissionService) recordFailure(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	attempt := domain.LoginAttempt{
		ID:        idx.New().String(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.LoginAttempts().RecordAttempt(ctx, attempt); err != nil {
		return err
	}

	since := time.Now().UTC().Add(-s.lockoutWindow())
	count, err := s.Store.LoginAttempts().CountAttemptsSince(ctx, email, since)
	if err != nil {
		return err
	}

	if count < s.lockoutThreshold() {
		return &CredentialFailureError{Attempts: count, Threshold: s.lockoutThreshold()}
	}

	state, err := s.Otp.ChallengeState(ctx, email)
	if err != nil {
		return err
	}

	switch state {
	case ChallengeBlocked:
		// The standing challenge was locked by too many wrong codes.
		// Further password failures stay at the locked route until the
		// challenge expires; no fresh code is minted.
		return ErrOtpBlocked

	case ChallengeNone:
		// Only escalate with a code when the email belongs to a known
		// account. Unknown emails still get the OTP route so the
		// response does not reveal which addresses exist.
		if _, err := s.Store.Accounts().GetAccountByEmail(ctx, email); err == nil {
			if err := s.Otp.Issue(ctx, email); err != nil {
				return err
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		log.Warn("login escalated to otp challenge", "email", email, "failures", count)
	}

	return &OtpRequiredError{Email: email}
}

// admit decides the post-credential destination. Accounts with MFA enabled
// but no enrolled secret go to setup; enrolled accounts skip the challenge
// only while a previous verification window is still open.
func (s *AdmissionService) admit(ctx context.Context, acct domain.Account, amr string) (domain.AdmissionDecision, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if acct.MFAEnabled {
		if !acct.MFAEnrolled() {
			return domain.AdmissionDecision{Route: domain.RouteMFASetup, Role: acct.Role}, nil
		}

		fresh := acct.MFAFresh(now)

		// Each new session starts unverified; a still-open window is the
		// only thing that carries verification across logins.
		if err := s.Store.Accounts().ClearMFAVerified(ctx, acct.ID); err != nil {
			return domain.AdmissionDecision{}, err
		}

		if !fresh {
			return domain.AdmissionDecision{Route: domain.RouteMFAChallenge, Role: acct.Role}, nil
		}
	}

	amrClaims := []string{amr}
	if acct.MFAEnabled && acct.MFAEnrolled() {
		amrClaims = append(amrClaims, domain.AMRMFA)
	}

	claims := jwtx.NewSessionClaims(acct.ID, acct.Email, string(acct.Role), amrClaims, s.sessionTTL(), s.Issuer, now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.AdmissionDecision{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	route := acct.Role.Destination()
	log.Info("login admitted", "account_id", acct.ID, "role", acct.Role, "route", route)

	return domain.AdmissionDecision{Route: route, Role: acct.Role, Token: token}, nil
}

// AdmitVerified issues a session token after a successful TOTP check. The
// caller is expected to have persisted the verification window already.
func (s *AdmissionService) AdmitVerified(ctx context.Context, accountID string) (domain.AdmissionDecision, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return domain.AdmissionDecision{}, err
	}
	if acct.Disabled {
		return domain.AdmissionDecision{}, ErrAccountDisabled
	}

	now := time.Now().UTC()
	claims := jwtx.NewSessionClaims(acct.ID, acct.Email, string(acct.Role), []string{domain.AMRPassword, domain.AMRMFA}, s.sessionTTL(), s.Issuer, now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.AdmissionDecision{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return domain.AdmissionDecision{Route: acct.Role.Destination(), Role: acct.Role, Token: token}, nil
}
