package pkg

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return d.DialAndSend(m)
}

func WelcomeHTML(name string) string {
	return fmt.Sprintf(`<p>Hi %s,</p><p>Your account is ready. You can now create and join communities.</p>`, html.EscapeString(name))
}

// SMTPMailer sends account emails through a gomail dialer.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendWelcome(_ context.Context, to, name string) error {
	return SendEmail(m.cfg, to, "Welcome", WelcomeHTML(name))
}
