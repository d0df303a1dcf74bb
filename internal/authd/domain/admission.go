package domain

// AMR values carried in session tokens, describing how the session was
// authenticated.
const (
	AMRPassword = "pwd" // password-based authentication
	AMROTP      = "otp" // emailed one-time code after lockout escalation
	AMRMFA      = "mfa" // TOTP second factor satisfied
)

// AdmissionDecision is the outcome of a completed login stage: where the
// client goes next and, once fully admitted, the session token to carry.
type AdmissionDecision struct {
	Route string
	Role  Role

	// Token is set only when the identity is authenticated and MFA is
	// satisfied; intermediate routes (OTP, MFA setup/challenge) leave it
	// empty.
	Token string
}

// Admitted reports whether the decision grants a session.
func (d AdmissionDecision) Admitted() bool { return d.Token != "" }
