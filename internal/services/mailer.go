package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/wneessen/go-mail"

	"github.com/Ananth-NQI/clubhub-backend/internal/config"
	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
)

// Message is one outgoing email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a single email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer builds the mailer selected by the configuration
func NewMailer(cfg config.MailConfig, m *metrics.Metrics) (Mailer, error) {
	var mailer Mailer
	switch cfg.Provider {
	case "resend":
		mailer = NewResendMailer(cfg.ResendAPIKey, cfg.From)
	case "smtp":
		smtp, err := NewSMTPMailer(cfg)
		if err != nil {
			return nil, err
		}
		mailer = smtp
	case "log":
		mailer = &LogMailer{}
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}
	if m == nil {
		return mailer, nil
	}
	return &instrumentedMailer{next: mailer, provider: cfg.Provider, metrics: m}, nil
}

type instrumentedMailer struct {
	next     Mailer
	provider string
	metrics  *metrics.Metrics
}

func (i *instrumentedMailer) Send(ctx context.Context, msg Message) error {
	err := i.next.Send(ctx, msg)
	i.metrics.EmailsSent.WithLabelValues(i.provider, metrics.Outcome(err)).Inc()
	return err
}

// ResendMailer sends through the Resend transactional email API
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (r *ResendMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sent, err := r.client.Emails.Send(&resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	slog.Info("Email sent", "provider", "resend", "to", msg.To, "id", sent.Id)
	return nil
}

// SMTPMailer submits mail directly to an SMTP server
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	slog.Info("Email sent", "provider", "smtp", "to", msg.To)
	return nil
}

// LogMailer only logs the message; used in development
type LogMailer struct{}

func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	slog.Info("📧 Email (log only)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
