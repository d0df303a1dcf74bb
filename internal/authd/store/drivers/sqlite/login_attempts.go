package sqlite

import (
	"context"
	"time"

	"github.com/bhalariaworks/authd/internal/authd/domain"
)

type loginAttemptsRepo struct {
	db dbtx
}

func (r *loginAttemptsRepo) RecordAttempt(ctx context.Context, a domain.LoginAttempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_attempts (id, email, created_at) VALUES (?, ?, ?)`,
		a.ID, a.Email, a.CreatedAt)
	return err
}

func (r *loginAttemptsRepo) CountAttemptsSince(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM login_attempts WHERE email = ? AND created_at >= ?`,
		email, since).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *loginAttemptsRepo) ClearAttempts(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM login_attempts WHERE email = ?`, email)
	return err
}

func (r *loginAttemptsRepo) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM login_attempts WHERE created_at < ?`, cutoff)
	return err
}
