package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers a single email. Delivery is fire-and-forget from the
// caller's perspective: a failure is logged by the caller and never rolls
// back the state change that triggered it.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPConfig holds SMTP transport settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// SMTPSender sends mail over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender constructs an SMTPSender from transport settings.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// Send delivers one HTML email.
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	if s == nil || s.dialer == nil {
		return fmt.Errorf("mail: sender not configured")
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, "Crypto Price Alerts")
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	if errSend := s.dialer.DialAndSend(m); errSend != nil {
		return fmt.Errorf("mail: send to %s: %w", to, errSend)
	}
	return nil
}
