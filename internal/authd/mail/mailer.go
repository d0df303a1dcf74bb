package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer delivers out-of-band codes and notices over SMTP.
type Mailer interface {
	SendLoginOTP(email, code string) error
	SendPasswordResetNotice(email string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *smtpMailer) SendLoginOTP(email, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your OTP for Login Verification")

	body := fmt.Sprintf(`
		<p>Your one-time login code is: <strong>%s</strong><br/>
		This code will expire in 5 minutes.</p>
	`, code)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	return nil
}

func (s *smtpMailer) SendPasswordResetNotice(email string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your password was reset")

	body := `
		<h3>Password reset</h3>
		<p>The password for your account was just changed.</p>
		<p>If you did not request this change, contact the admin desk immediately.</p>
	`

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reset notice: %w", err)
	}

	return nil
}
