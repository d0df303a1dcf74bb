package domain

import "time"

// OtpChallenge is an out-of-band email code issued after repeated login
// failures. One live challenge per email; consumed on success.
type OtpChallenge struct {
	Email     string
	CodeHash  string // SHA-256 fingerprint of the 6-digit code
	Attempts  int
	Blocked   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the challenge is past its validity, in which
// case even a matching code is rejected.
func (c OtpChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
