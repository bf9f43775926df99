package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service sends caregiver notifications.
type Service interface {
	SendMissedDoseAlert(ctx context.Context, to string, medicationName string, scheduledAt string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendMissedDoseAlert(ctx context.Context, to string, medicationName string, scheduledAt string) error {
	subject := fmt.Sprintf("Missed dose: %s", medicationName)
	body := fmt.Sprintf(
		"A scheduled dose of %s was missed.\n\nScheduled time: %s\n\nPlease check in with the patient.",
		medicationName, scheduledAt,
	)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type noopService struct{}

// NewNoopService returns a sender that drops all mail. Used when no SMTP
// host is configured.
func NewNoopService() Service {
	return noopService{}
}

func (noopService) SendMissedDoseAlert(context.Context, string, string, string) error { return nil }
func (noopService) SendCustom(context.Context, string, string, string) error          { return nil }
