package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier sends reset codes as plain-text mail.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger logging.Logger
	send   func(ctx context.Context, msg *mail.Msg) error
}

func NewSMTPNotifier(cfg SMTPConfig, logger logging.Logger) (*SMTPNotifier, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client error: %w", err)
	}

	return &SMTPNotifier{
		cfg:    cfg,
		logger: logger.With("module", "notify"),
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

func (n *SMTPNotifier) SendResetCode(ctx context.Context, email, code string) error {
	msg, err := buildResetMessage(n.cfg.From, email, code)
	if err != nil {
		return err
	}

	if err := n.send(ctx, msg); err != nil {
		n.logger.Error(ctx, "reset code delivery failed", "email", email, "error", err)
		return fmt.Errorf("smtp send error: %w", err)
	}

	n.logger.Info(ctx, "reset code sent", "email", email)
	return nil
}

func buildResetMessage(from, to, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(mail.TypeTextPlain, resetText(code))
	return msg, nil
}
