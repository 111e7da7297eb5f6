package email

import (
	"fmt"
	"net/smtp"

	"flight-check/shared/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	if s.config.ToEmail == "" {
		return fmt.Errorf("no recipient configured (email.to_email)")
	}

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	to := []string{s.config.ToEmail}

	return s.send(addr, auth, s.config.FromEmail, to, s.buildMessage(subject, htmlBody))
}

func (s *Sender) buildMessage(subject, body string) []byte {
	return []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))
}
