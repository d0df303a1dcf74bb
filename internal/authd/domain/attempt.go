package domain

import "time"

// LoginAttempt records one failed credential check. The lockout counter is
// the number of rows for an email inside the rolling window, cleared on
// any successful authentication.
type LoginAttempt struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
