package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/mail"
	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/cryptox"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

const (
	// DefaultOtpTTL is how long an emailed code stays valid.
	DefaultOtpTTL = 5 * time.Minute

	// DefaultOtpMaxAttempts is the number of wrong codes before the
	// challenge is blocked and the caller is sent to the locked route.
	DefaultOtpMaxAttempts = 5

	otpCodeDigits = 6
)

var (
	ErrOtpInvalid = errors.New("otp_invalid")
	ErrOtpExpired = errors.New("otp_expired")
	ErrOtpBlocked = errors.New("otp_blocked")
)

// OtpService issues and verifies out-of-band email codes. One live
// challenge exists per email; verification consumes it.
type OtpService struct {
	Store       store.Store
	Mailer      mail.Mailer
	TTL         time.Duration
	MaxAttempts int
}

func (s *OtpService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultOtpTTL
	}
	return s.TTL
}

func (s *OtpService) maxAttempts() int {
	if s.MaxAttempts <= 0 {
		return DefaultOtpMaxAttempts
	}
	return s.MaxAttempts
}

// Issue generates a fresh 6-digit code, persists the challenge and emails
// the code. An existing challenge for the email is replaced.
func (s *OtpService) Issue(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	code, err := cryptox.GenerateNumericCode(otpCodeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate OTP code: %w", err)
	}

	now := time.Now().UTC()
	challenge := domain.OtpChallenge{
		Email:     email,
		CodeHash:  cryptox.FingerprintCode(code),
		Attempts:  0,
		Blocked:   false,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}

	if err := s.Store.OtpChallenges().UpsertChallenge(ctx, challenge); err != nil {
		return fmt.Errorf("failed to store OTP challenge: %w", err)
	}

	if err := s.Mailer.SendLoginOTP(email, code); err != nil {
		// The stored challenge is useless without the email; drop it so a
		// retry issues a fresh code.
		_ = s.Store.OtpChallenges().DeleteChallenge(ctx, email)
		return fmt.Errorf("failed to deliver OTP: %w", err)
	}

	log.Info("otp challenge issued", "email", email)
	return nil
}

// Verify checks a submitted code against the live challenge. A correct
// code consumes the challenge; replays are rejected. Expired challenges
// reject even a matching code. Wrong codes count toward the blocked state.
func (s *OtpService) Verify(ctx context.Context, email, code string) error {
	challenge, err := s.Store.OtpChallenges().GetChallenge(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOtpInvalid
		}
		return err
	}

	if challenge.Blocked {
		return ErrOtpBlocked
	}

	now := time.Now().UTC()
	if challenge.Expired(now) {
		return ErrOtpExpired
	}

	submitted := cryptox.FingerprintCode(code)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(challenge.CodeHash)) != 1 {
		updated, err := s.Store.OtpChallenges().IncrementChallengeAttempts(ctx, email)
		if err != nil {
			return err
		}
		if updated.Attempts >= s.maxAttempts() {
			if err := s.Store.OtpChallenges().BlockChallenge(ctx, email); err != nil {
				return err
			}
			return ErrOtpBlocked
		}
		return ErrOtpInvalid
	}

	// Single use: consume on success.
	if err := s.Store.OtpChallenges().DeleteChallenge(ctx, email); err != nil {
		return err
	}

	return nil
}

// ChallengeState classifies the stored challenge for an email.
type ChallengeState int

const (
	// ChallengeNone means no challenge exists, or only an expired one.
	ChallengeNone ChallengeState = iota

	// ChallengeLive means an unexpired challenge is awaiting its code.
	ChallengeLive

	// ChallengeBlocked means the challenge was locked by too many wrong
	// codes. The lock lasts until the challenge itself expires.
	ChallengeBlocked
)

// ChallengeState reports the state of the challenge for an email. Expired
// challenges count as absent, blocked or not.
func (s *OtpService) ChallengeState(ctx context.Context, email string) (ChallengeState, error) {
	challenge, err := s.Store.OtpChallenges().GetChallenge(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ChallengeNone, nil
		}
		return ChallengeNone, err
	}
	if challenge.Expired(time.Now().UTC()) {
		return ChallengeNone, nil
	}
	if challenge.Blocked {
		return ChallengeBlocked, nil
	}
	return ChallengeLive, nil
}
