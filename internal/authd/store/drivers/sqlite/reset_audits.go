package sqlite

import (
	"context"

	"github.com/bhalariaworks/authd/internal/authd/domain"
)

type resetAuditsRepo struct {
	db dbtx
}

func (r *resetAuditsRepo) CreateResetAudit(ctx context.Context, a domain.ResetAudit) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_audits (id, account_id, email, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.AccountID, a.Email, a.CreatedAt)
	return err
}

func (r *resetAuditsRepo) ListResetAudits(ctx context.Context, limit int) ([]domain.ResetAudit, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, email, created_at
		 FROM reset_audits ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []domain.ResetAudit
	for rows.Next() {
		var a domain.ResetAudit
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Email, &a.CreatedAt); err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}
