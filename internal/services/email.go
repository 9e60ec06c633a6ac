package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"go.uber.org/zap"

	"portfolio/internal/config"
	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

//go:embed templates/email/*
var emailTemplates embed.FS

const (
	operatorTemplate     = "contact_notification"
	confirmationTemplate = "user_confirmation"

	deliveryOperator     = "operator"
	deliveryConfirmation = "confirmation"
)

// Mail is one outgoing message with an HTML body and a plain-text fallback
type Mail struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// MailTransport delivers a rendered message
type MailTransport interface {
	Send(ctx context.Context, m *Mail) error
}

// EmailService sends the two contact-form emails. Every failure is logged and
// reported as false; nothing is returned to the caller as an error.
type EmailService struct {
	cfg       *config.MailConfig
	transport MailTransport
	html      *htmltemplate.Template
	text      *texttemplate.Template
	log       *zap.Logger
}

type emailData struct {
	Message  *domain.ContactMessage
	SiteName string
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.MailConfig, transport MailTransport, log *zap.Logger) (*EmailService, error) {
	html, err := htmltemplate.ParseFS(emailTemplates, "templates/email/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML email templates: %w", err)
	}
	text, err := texttemplate.ParseFS(emailTemplates, "templates/email/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text email templates: %w", err)
	}
	return &EmailService{
		cfg:       cfg,
		transport: transport,
		html:      html,
		text:      text,
		log:       log.Named("email"),
	}, nil
}

// SendOperatorNotification emails the site operator about a new message.
// It never addresses the submitter.
func (s *EmailService) SendOperatorNotification(ctx context.Context, msg *domain.ContactMessage) bool {
	log := s.log.With(zap.Uint("message_id", msg.ID), zap.String("kind", deliveryOperator))

	if !s.hasCredentials(log) {
		return s.record(deliveryOperator, false)
	}
	if s.cfg.OperatorAddress == "" {
		log.Error("ADMIN_EMAIL is not set")
		return s.record(deliveryOperator, false)
	}

	return s.deliver(ctx, log, deliveryOperator, operatorTemplate, s.cfg.OperatorAddress,
		"Portfolio Contact: "+msg.Subject, msg)
}

// SendSubmitterConfirmation emails the submitter an acknowledgement
func (s *EmailService) SendSubmitterConfirmation(ctx context.Context, msg *domain.ContactMessage) bool {
	log := s.log.With(zap.Uint("message_id", msg.ID), zap.String("kind", deliveryConfirmation))

	if !s.hasCredentials(log) {
		return s.record(deliveryConfirmation, false)
	}

	return s.deliver(ctx, log, deliveryConfirmation, confirmationTemplate, msg.Email,
		"Thank you for contacting "+s.cfg.SiteName, msg)
}

func (s *EmailService) hasCredentials(log *zap.Logger) bool {
	if s.cfg.Username == "" {
		log.Error("MAIL_USERNAME is not set")
		return false
	}
	if s.cfg.Password == "" {
		log.Error("MAIL_PASSWORD is not set")
		return false
	}
	return true
}

func (s *EmailService) deliver(ctx context.Context, log *zap.Logger, kind, tmpl, to, subject string, msg *domain.ContactMessage) bool {
	if s.cfg.SuppressSend {
		log.Info("email sending suppressed", zap.String("to", to))
		metrics.RecordEmailDelivery(kind, "suppressed")
		return true
	}

	data := emailData{Message: msg, SiteName: s.cfg.SiteName}

	var html bytes.Buffer
	if err := s.html.ExecuteTemplate(&html, tmpl+".html", data); err != nil {
		log.Error("failed to render email template", zap.Error(err))
		return s.record(kind, false)
	}
	var text bytes.Buffer
	if err := s.text.ExecuteTemplate(&text, tmpl+".txt", data); err != nil {
		log.Error("failed to render text email body", zap.Error(err))
		return s.record(kind, false)
	}

	mail := &Mail{
		From:     s.cfg.DefaultSender,
		To:       []string{to},
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}
	if err := s.transport.Send(ctx, mail); err != nil {
		log.Error("failed to send email", zap.String("to", to), zap.Error(err))
		return s.record(kind, false)
	}

	log.Info("email sent", zap.String("to", to))
	return s.record(kind, true)
}

func (s *EmailService) record(kind string, ok bool) bool {
	result := "failed"
	if ok {
		result = "sent"
	}
	metrics.RecordEmailDelivery(kind, result)
	return ok
}
