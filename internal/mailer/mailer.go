package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Mailer sends transactional account emails. Delivery failures are reported
// but callers treat them as best-effort: account creation never rolls back
// because SMTP was down.
type Mailer interface {
	SendCredentials(to, fullName, tempPassword string) error
	SendVerification(to, fullName, verifyURL string) error
}

type smtpMailer struct {
	host string
	port string
	from string
	auth smtp.Auth
}

// NewFromEnv builds a Mailer from SMTP_* environment variables. Without an
// SMTP_HOST it falls back to a logger that prints emails to stdout, which is
// what local development wants.
func NewFromEnv() Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return &logMailer{}
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	user := os.Getenv("SMTP_USER")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASSWORD"), host)
	}
	return &smtpMailer{host: host, port: port, from: from, auth: auth}
}

func (m *smtpMailer) send(to, subject, body string) error {
	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
		"\r\n" + body + "\r\n")
	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("mailer: failed to send to %s: %w", to, err)
	}
	return nil
}

func (m *smtpMailer) SendCredentials(to, fullName, tempPassword string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nAn account has been created for you.\n\nEmail: %s\nTemporary password: %s\n\nYou will be asked to change this password on first login.\n",
		fullName, to, tempPassword)
	return m.send(to, "Your account credentials", body)
}

func (m *smtpMailer) SendVerification(to, fullName, verifyURL string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nPlease verify your email address by visiting:\n\n%s\n\nIf you did not create this account you can ignore this message.\n",
		fullName, verifyURL)
	return m.send(to, "Verify your email", body)
}

// logMailer prints outgoing mail instead of delivering it.
type logMailer struct{}

func (l *logMailer) SendCredentials(to, fullName, tempPassword string) error {
	log.Printf("mail (credentials) to=%s name=%s password=%s", to, fullName, tempPassword)
	return nil
}

func (l *logMailer) SendVerification(to, fullName, verifyURL string) error {
	log.Printf("mail (verify) to=%s name=%s url=%s", to, fullName, verifyURL)
	return nil
}
