// Package mailer envío de correos transaccionales.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/pkg/config"
	"github.com/climatecoin/carbon-api/pkg/logger"
)

var (
	_ carbon.Mailer = (*MailgunMailer)(nil)
	_ carbon.Mailer = (*LogMailer)(nil)
)

// ErrNoRecipients no hay destinatario explícito ni MAILGUN_EMAIL_TO.
var ErrNoRecipients = errors.New("mailer: sin destinatarios")

// MailgunMailer envía el contenido como texto y HTML con reply-to al remitente.
type MailgunMailer struct {
	mg        mailgun.Mailgun
	from      string
	defaultTo string
}

// New elige Mailgun si hay API key; si no, un mailer que solo registra en log.
func New(cfg config.MailConfig, log *logger.Logger) carbon.Mailer {
	log = log.Named("mailer")
	if cfg.APIKey == "" || cfg.Domain == "" {
		log.Warn().Msg("MAILGUN_API_KEY/MAILGUN_DOMAIN vacíos: los correos solo se registran en log")
		return NewLogMailer(cfg.To, log)
	}
	return NewMailgunMailer(mailgun.NewMailgun(cfg.Domain, cfg.APIKey), cfg.From, cfg.To)
}

// NewMailgunMailer construye el mailer sobre un cliente Mailgun ya configurado.
func NewMailgunMailer(mg mailgun.Mailgun, from, defaultTo string) *MailgunMailer {
	return &MailgunMailer{mg: mg, from: from, defaultTo: defaultTo}
}

// Send envía a los destinatarios indicados o, si no hay, al buzón de operaciones.
func (m *MailgunMailer) Send(ctx context.Context, subject, content string, to ...string) error {
	recipients, err := resolveRecipients(to, m.defaultTo)
	if err != nil {
		return err
	}
	msg := m.mg.NewMessage(m.from, subject, content, recipients...)
	msg.SetHtml(content)
	msg.SetReplyTo(m.from)
	if _, _, err := m.mg.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}

// LogMailer mailer para desarrollo: registra el correo y no lo envía.
type LogMailer struct {
	defaultTo string
	log       *logger.Logger
}

func NewLogMailer(defaultTo string, log *logger.Logger) *LogMailer {
	return &LogMailer{defaultTo: defaultTo, log: log}
}

func (m *LogMailer) Send(_ context.Context, subject, content string, to ...string) error {
	recipients, err := resolveRecipients(to, m.defaultTo)
	if err != nil {
		return err
	}
	m.log.Info().Str("subject", subject).Strs("to", recipients).Str("content", content).Msg("correo (no enviado)")
	return nil
}

func resolveRecipients(to []string, defaultTo string) ([]string, error) {
	var out []string
	for _, addr := range to {
		if addr != "" {
			out = append(out, addr)
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	if defaultTo == "" {
		return nil, ErrNoRecipients
	}
	return []string{defaultTo}, nil
}
