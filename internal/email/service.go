package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service sends workflow notification emails. Delivery is best-effort;
// callers log failures and move on.
type Service interface {
	SendCredentialDecision(ctx context.Context, to, name, decision, reason string) error
	SendWelcome(ctx context.Context, to, name string) error
}

type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *service) SendCredentialDecision(ctx context.Context, to, name, decision, reason string) error {
	subject := fmt.Sprintf("Your doctor credential application was %s", decision)
	body := fmt.Sprintf("Dear %s,\n\nYour credential application has been %s.", name, decision)
	if reason != "" {
		body += fmt.Sprintf("\n\nReason: %s", reason)
	}
	return s.send(to, subject, body)
}

func (s *service) SendWelcome(ctx context.Context, to, name string) error {
	subject := "Welcome to the pharmacy directory"
	body := fmt.Sprintf("Dear %s,\n\nYour account has been created.", name)
	return s.send(to, subject, body)
}

func (s *service) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService satisfies Service when SMTP is not configured.
type NoopService struct{}

func (NoopService) SendCredentialDecision(ctx context.Context, to, name, decision, reason string) error {
	return nil
}

func (NoopService) SendWelcome(ctx context.Context, to, name string) error {
	return nil
}
