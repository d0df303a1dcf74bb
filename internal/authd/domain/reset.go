package domain

import "time"

// ResetAudit is an append-only record of a password reset, surfaced in the
// admin reset-logs area.
type ResetAudit struct {
	ID        string
	AccountID string
	Email     string
	CreatedAt time.Time
}
