// Package mailer sends transactional email through SendGrid, or logs it when no API key is set.
package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Message is a single plain-text email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures the transport.
type Config struct {
	SendgridAPIKey string
	FromName       string
	FromAddress    string
	SubjectPrefix  string
}

// New returns a SendGrid mailer, or a logging mailer when no API key is configured.
func New(cfg Config, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendgridAPIKey == "" {
		return &logMailer{logger: logger}
	}
	return &sendgridMailer{
		key:    cfg.SendgridAPIKey,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		prefix: cfg.SubjectPrefix,
	}
}

type sendgridMailer struct {
	key    string
	from   *sgmail.Email
	prefix string
}

func (m *sendgridMailer) Send(ctx context.Context, msg Message) error {
	mail := sgmail.NewSingleEmail(m.from, m.prefix+msg.Subject, sgmail.NewEmail(msg.ToName, msg.ToAddress), msg.Text, "")

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email not sent, no transport configured",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
	)
	return nil
}
