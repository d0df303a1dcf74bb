package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

var (
	ErrMFACodeInvalid = errors.New("mfa_code_invalid")
	ErrMFANoSecret    = errors.New("mfa_secret_missing")
)

// MFASecret is a freshly generated TOTP enrollment. The secret is not
// persisted until the first code verifies against it.
type MFASecret struct {
	Secret     string
	OtpAuthURL string
}

// MFAService handles TOTP enrollment and verification. A successful check
// opens the admission window so repeat logins inside it skip the prompt.
type MFAService struct {
	Store  store.Store
	Issuer string
	Window time.Duration
}

func (s *MFAService) window() time.Duration {
	if s.Window <= 0 {
		return DefaultMFAWindow
	}
	return s.Window
}

// GenerateSecret mints a new TOTP secret and provisioning URL for the
// account. Nothing is stored; enrollment completes on first verification.
func (s *MFAService) GenerateSecret(ctx context.Context, email string) (MFASecret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return MFASecret{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return MFASecret{Secret: key.Secret(), OtpAuthURL: key.URL()}, nil
}

// VerifyCode checks a TOTP code for the account. During enrollment the
// caller supplies the candidate secret; afterwards the stored secret is
// used. One step of clock skew is tolerated either side. A wrong code
// changes no state.
func (s *MFAService) VerifyCode(ctx context.Context, accountID, secret, code string) error {
	log := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	if secret == "" {
		if acct.MFASecret == nil || *acct.MFASecret == "" {
			return ErrMFANoSecret
		}
		secret = *acct.MFASecret
	}

	now := time.Now().UTC()
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("failed to validate TOTP code: %w", err)
	}
	if !ok {
		return ErrMFACodeInvalid
	}

	until := now.Add(s.window())
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().SetMFASecret(ctx, acct.ID, secret); err != nil {
			return err
		}
		return tx.Accounts().SetMFAVerified(ctx, acct.ID, until)
	})
	if err != nil {
		return err
	}

	log.Info("mfa verified", "account_id", acct.ID, "window_until", until)
	return nil
}
