package store

import (
	"context"
	"errors"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable, and
// make it harder to accidentally nest transactions.
type Store interface {
	Accounts() Accounts
	OtpChallenges() OtpChallenges
	LoginAttempts() LoginAttempts
	ResetAudits() ResetAudits

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail is used during the credential check.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error

	// SetMFASecret stores the confirmed TOTP secret for an account.
	SetMFASecret(ctx context.Context, accountID string, secret string) error

	// SetMFAVerified marks the second factor satisfied until the given time.
	SetMFAVerified(ctx context.Context, accountID string, until time.Time) error

	// ClearMFAVerified resets the per-session verified flag. The admission
	// window (mfa_verified_until) is left untouched so a still-fresh factor
	// can skip the challenge.
	ClearMFAVerified(ctx context.Context, accountID string) error

	// RevokeMFAWindow clears both the verified flag and the window, forcing
	// the next login through the challenge (used on password reset).
	RevokeMFAWindow(ctx context.Context, accountID string) error

	// IsEmpty returns true if there are no accounts.
	IsEmpty(ctx context.Context) (bool, error)
}

type OtpChallenges interface {
	// UpsertChallenge creates or replaces the single live challenge for an
	// email.
	UpsertChallenge(ctx context.Context, c domain.OtpChallenge) error

	// GetChallenge returns the live challenge for an email.
	GetChallenge(ctx context.Context, email string) (domain.OtpChallenge, error)

	// IncrementChallengeAttempts bumps the failed attempt counter and
	// returns the updated challenge.
	IncrementChallengeAttempts(ctx context.Context, email string) (domain.OtpChallenge, error)

	// BlockChallenge marks a challenge blocked after too many attempts.
	BlockChallenge(ctx context.Context, email string) error

	// DeleteChallenge consumes a challenge (success or housekeeping).
	DeleteChallenge(ctx context.Context, email string) error

	// DeleteExpiredChallenges removes challenges past expiry (housekeeping).
	DeleteExpiredChallenges(ctx context.Context) error
}

type LoginAttempts interface {
	// RecordAttempt appends a failed credential check.
	RecordAttempt(ctx context.Context, a domain.LoginAttempt) error

	// CountAttemptsSince returns the failure count for an email inside the
	// lockout window.
	CountAttemptsSince(ctx context.Context, email string, since time.Time) (int, error)

	// ClearAttempts resets the counter after a successful authentication.
	ClearAttempts(ctx context.Context, email string) error

	// DeleteAttemptsBefore drops rows older than the cutoff (housekeeping).
	DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) error
}

type ResetAudits interface {
	// CreateResetAudit appends a password-reset audit record.
	CreateResetAudit(ctx context.Context, a domain.ResetAudit) error

	// ListResetAudits returns audit records newest first.
	ListResetAudits(ctx context.Context, limit int) ([]domain.ResetAudit, error)
}
