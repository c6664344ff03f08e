// Package mailer sends transactional email through SMTP or Mailjet.
package mailer

import (
	"context"
	"log/slog"
	"strings"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	ReplyTo     string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Provider          string
	From              string
	FromName          string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	MailjetPublicKey  string
	MailjetPrivateKey string
}

// New picks a provider from cfg. Without credentials it falls back to a
// mailer that only logs.
func New(cfg Config, logger *slog.Logger) Mailer {
	switch strings.ToLower(cfg.Provider) {
	case "mailjet":
		if cfg.MailjetPublicKey != "" && cfg.MailjetPrivateKey != "" {
			return NewMailjetMailer(cfg.MailjetPublicKey, cfg.MailjetPrivateKey, cfg.From, cfg.FromName)
		}
	case "smtp", "":
		if cfg.SMTPHost != "" {
			return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From, cfg.FromName)
		}
	}
	logger.Warn("no mail provider configured, emails will only be logged", "provider", cfg.Provider)
	return &LogMailer{logger: logger}
}

type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("email not sent, no provider",
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)
	return nil
}
