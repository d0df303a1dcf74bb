package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, password_hash, role, disabled,
	mfa_enabled, mfa_secret, mfa_verified, mfa_verified_until,
	created_at, updated_at`

func (r *accountsRepo) scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a            domain.Account
		role         string
		secret       sql.NullString
		verifiedTill sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &role, &a.Disabled,
		&a.MFAEnabled, &secret, &a.MFAVerified, &verifiedTill,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.Role = domain.ParseRole(role)
	a.MFASecret = mapNullStringPtr(secret)
	a.MFAVerifiedUntil = mapNullTimePtr(verifiedTill)
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return r.scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return r.scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, role, disabled,
			mfa_enabled, mfa_secret, mfa_verified, mfa_verified_until)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, a.Role.String(), a.Disabled,
		a.MFAEnabled, mapOptionalString(a.MFASecret), a.MFAVerified,
		mapOptionalTime(a.MFAVerifiedUntil),
	)
	return mapConflict(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, accountID)
	return err
}

func (r *accountsRepo) SetMFASecret(ctx context.Context, accountID string, secret string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET mfa_secret = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		secret, accountID)
	return err
}

func (r *accountsRepo) SetMFAVerified(ctx context.Context, accountID string, until time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET mfa_verified = 1, mfa_verified_until = ?,
			updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		until, accountID)
	return err
}

func (r *accountsRepo) ClearMFAVerified(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET mfa_verified = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		accountID)
	return err
}

func (r *accountsRepo) RevokeMFAWindow(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET mfa_verified = 0, mfa_verified_until = NULL,
			updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		accountID)
	return err
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
