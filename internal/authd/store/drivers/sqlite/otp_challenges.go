package sqlite

import (
	"context"

	"github.com/bhalariaworks/authd/internal/authd/domain"
)

type otpChallengesRepo struct {
	db dbtx
}

func (r *otpChallengesRepo) UpsertChallenge(ctx context.Context, c domain.OtpChallenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_challenges (email, code_hash, attempts, blocked, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			code_hash = excluded.code_hash,
			attempts = excluded.attempts,
			blocked = excluded.blocked,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		c.Email, c.CodeHash, c.Attempts, c.Blocked, c.CreatedAt, c.ExpiresAt,
	)
	return err
}

func (r *otpChallengesRepo) GetChallenge(ctx context.Context, email string) (domain.OtpChallenge, error) {
	var c domain.OtpChallenge
	err := r.db.QueryRowContext(ctx,
		`SELECT email, code_hash, attempts, blocked, created_at, expires_at
		 FROM otp_challenges WHERE email = ?`, email).
		Scan(&c.Email, &c.CodeHash, &c.Attempts, &c.Blocked, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.OtpChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *otpChallengesRepo) IncrementChallengeAttempts(ctx context.Context, email string) (domain.OtpChallenge, error) {
	var c domain.OtpChallenge
	err := r.db.QueryRowContext(ctx,
		`UPDATE otp_challenges SET attempts = attempts + 1
		 WHERE email = ?
		 RETURNING email, code_hash, attempts, blocked, created_at, expires_at`, email).
		Scan(&c.Email, &c.CodeHash, &c.Attempts, &c.Blocked, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.OtpChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *otpChallengesRepo) BlockChallenge(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_challenges SET blocked = 1 WHERE email = ?`, email)
	return err
}

func (r *otpChallengesRepo) DeleteChallenge(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE email = ?`, email)
	return err
}

func (r *otpChallengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}
