package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional email via Resend. In development it
// logs the message (including the link) instead of sending, so local
// flows work without an API key.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	baseURL   string
	appName   string
	isDev     bool
}

func NewEmailService(apiKey, fromEmail, baseURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		baseURL:   baseURL,
		appName:   appName,
		isDev:     isDev,
	}
}

func (s *EmailService) send(emailType, to, subject, body, link string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", emailType, "to", to, "subject", subject, "url", link)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", emailType, "to", to)
	}
	return err
}

func (s *EmailService) SendVerificationEmail(email, token, name string) error {
	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.baseURL, token)
	subject, body := verifyEmailTemplate(verifyURL, name, s.appName)
	return s.send("email_verify", email, subject, body, verifyURL)
}

func (s *EmailService) SendPasswordResetEmail(email, token, name string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	subject, body := passwordResetTemplate(resetURL, name, s.appName)
	return s.send("password_reset", email, subject, body, resetURL)
}

func (s *EmailService) SendFilmApprovedEmail(email, name, filmTitle string) error {
	subject, body := filmApprovedTemplate(name, filmTitle, s.appName)
	return s.send("film_approved", email, subject, body, "")
}

func (s *EmailService) SendFilmRejectedEmail(email, name, filmTitle, reason string) error {
	subject, body := filmRejectedTemplate(name, filmTitle, reason, s.appName)
	return s.send("film_rejected", email, subject, body, "")
}
