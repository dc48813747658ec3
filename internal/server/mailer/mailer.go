// Package mailer delivers one-time codes to sellers.
package mailer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/wneessen/go-mail"
)

// Dispatcher sends an OTP to its recipient.
type Dispatcher interface {
	SendOTP(ctx context.Context, to, code string, purpose models.Purpose, expiresAt time.Time) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg    SMTPConfig
	logger logging.Logger
	now    func() time.Time
}

func NewSMTPMailer(cfg SMTPConfig, logger logging.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger.With("module", "mailer"), now: time.Now}
}

func (m *SMTPMailer) options() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.cfg.Port), mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose models.Purpose, expiresAt time.Time) error {
	msg, err := BuildMessage(m.cfg.From, to, code, purpose, expiresAt.Sub(m.now()))
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host, m.options()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.logger.Debug(ctx, "otp mail sent", "purpose", purpose)
	return nil
}

// BuildMessage renders the plain-text OTP mail.
func BuildMessage(from, to, code string, purpose models.Purpose, validFor time.Duration) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}

	msg.Subject(fmt.Sprintf("Your LinkUp %s code", purpose))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.", code, minutes(validFor)))
	return msg, nil
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// LogMailer writes codes to the log for local development.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) SendOTP(ctx context.Context, to, code string, purpose models.Purpose, expiresAt time.Time) error {
	m.logger.Info(ctx, "smtp not configured, otp written to log",
		"email", to, "purpose", purpose, "code", code, "expires_at", expiresAt)
	return nil
}
