package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
	"github.com/bhalariaworks/authd/internal/authd/mail"
	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/pkg/cryptox"
	"github.com/bhalariaworks/authd/pkg/idx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

var ErrAccountNotFound = errors.New("account_not_found")

// PasswordResetService replaces an account's password and revokes the MFA
// admission window so the next login re-proves the second factor.
type PasswordResetService struct {
	Store  store.Store
	Mailer mail.Mailer
}

// Reset sets a new password for the account behind email. The change, the
// MFA window revocation and the audit row land in one transaction.
func (s *PasswordResetService) Reset(ctx context.Context, email, newPassword string) error {
	log := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
			return err
		}
		if err := tx.Accounts().RevokeMFAWindow(ctx, acct.ID); err != nil {
			return err
		}
		return tx.ResetAudits().CreateResetAudit(ctx, domain.ResetAudit{
			ID:        idx.New().String(),
			AccountID: acct.ID,
			Email:     acct.Email,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	// Delivery is best effort, the reset itself already committed.
	if err := s.Mailer.SendPasswordResetNotice(acct.Email); err != nil {
		log.Warn("failed to send password reset notice", "email", acct.Email, "error", err)
	}

	log.Info("password reset", "account_id", acct.ID)
	return nil
}

// RecentAudits lists the latest password reset audit records.
func (s *PasswordResetService) RecentAudits(ctx context.Context, limit int) ([]domain.ResetAudit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Store.ResetAudits().ListResetAudits(ctx, limit)
}
