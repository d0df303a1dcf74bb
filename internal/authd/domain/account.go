package domain

import "time"

// Account is a workforce identity plus the MFA admission state the login
// flow reads and writes. Password material is an argon2id PHC string.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Disabled     bool

	MFAEnabled       bool
	MFASecret        *string    // TOTP secret (nullable, base32 encoded)
	MFAVerified      bool       // reset to false at the start of every session
	MFAVerifiedUntil *time.Time // admission window end (nullable)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MFAEnrolled reports whether a TOTP secret has been confirmed for the
// account. Enabled-but-unenrolled accounts are sent to setup instead of
// the challenge.
func (a Account) MFAEnrolled() bool {
	return a.MFASecret != nil && *a.MFASecret != ""
}

// MFAFresh reports whether the second factor is still within its admission
// window. Once the window elapses the stored verified flag is irrelevant.
func (a Account) MFAFresh(now time.Time) bool {
	return a.MFAVerifiedUntil != nil && now.Before(*a.MFAVerifiedUntil)
}
