// Package notification sends the gala's transactional email and records every
// attempt in email_log.
package notification

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"gala-ticketing/internal/config"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/utils"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type SendResult struct {
	ProviderID string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// NewSender returns an SMTP sender when a relay is configured and a
// log-only sender otherwise.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if cfg.Enabled() {
		return &SMTPSender{
			Addr:     net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
			Host:     cfg.SMTPHost,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}
	}
	log.Warn("EMAIL", "SMTP_HOST not set, emails will only be logged")
	return &LogSender{Logger: log}
}

type SMTPSender struct {
	Addr     string
	Host     string
	Username string
	Password string

	// sendMail is smtp.SendMail unless a test swaps it.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	id := fmt.Sprintf("<%s@%s>", utils.GenerateID(), s.Host)
	send := s.sendMail
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(s.Addr, auth, envelopeAddress(msg.From), []string{msg.To}, formatMessage(msg, id)); err != nil {
		return SendResult{}, err
	}
	return SendResult{ProviderID: id}, nil
}

// envelopeAddress strips a display name: "YCKC Gala <info@x.org>" -> "info@x.org".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}

func formatMessage(msg Message, messageID string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Logger *logger.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) (SendResult, error) {
	s.Logger.Info("EMAIL", fmt.Sprintf("(not sent) to=%s subject=%q", msg.To, msg.Subject))
	return SendResult{ProviderID: "log-" + utils.GenerateID()}, nil
}
