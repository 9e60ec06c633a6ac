package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/domain"
	"portfolio/internal/metrics"
	apperrors "portfolio/pkg/errors"
)

// Notifier delivers the two contact-form emails. Implementations report
// success as a bool and never return errors.
type Notifier interface {
	SendOperatorNotification(ctx context.Context, msg *domain.ContactMessage) bool
	SendSubmitterConfirmation(ctx context.Context, msg *domain.ContactMessage) bool
}

// Outcome is the user-facing result of a persisted contact submission
type Outcome string

const (
	OutcomeDelivered          Outcome = "delivered"
	OutcomeConfirmationFailed Outcome = "confirmation_failed"
	OutcomeNotificationFailed Outcome = "notification_failed"
	OutcomeEmailUnavailable   Outcome = "email_unavailable"
)

// Flash categories
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashError   = "error"
	FlashInfo    = "info"
)

// ContactFailureMessage is shown when a submission could not be stored
const ContactFailureMessage = "Sorry, there was an error sending your message. Please try again."

var outcomeMessages = map[Outcome]string{
	OutcomeDelivered:          "Your message has been sent successfully! A confirmation email has been sent to your inbox.",
	OutcomeConfirmationFailed: "Your message has been received! However, there was an issue sending the confirmation email.",
	OutcomeNotificationFailed: "Your message has been received! However, there was an issue with our notification system.",
	OutcomeEmailUnavailable:   "Your message has been saved! However, there was an issue with our email system. We will contact you soon.",
}

// OutcomeFor combines the two delivery results
func OutcomeFor(operatorSent, confirmationSent bool) Outcome {
	switch {
	case operatorSent && confirmationSent:
		return OutcomeDelivered
	case operatorSent:
		return OutcomeConfirmationFailed
	case confirmationSent:
		return OutcomeNotificationFailed
	default:
		return OutcomeEmailUnavailable
	}
}

// Message returns the text shown to the submitter
func (o Outcome) Message() string {
	return outcomeMessages[o]
}

// Category returns the flash category for the outcome
func (o Outcome) Category() string {
	if o == OutcomeDelivered {
		return FlashSuccess
	}
	return FlashWarning
}

// ContactResult describes a stored submission and its deliveries
type ContactResult struct {
	Message          *domain.ContactMessage
	OperatorNotified bool
	ConfirmationSent bool
	Outcome          Outcome
}

// ContactService implements the contact form pipeline
type ContactService struct {
	db       *gorm.DB
	notifier Notifier
	log      *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(db *gorm.DB, notifier Notifier, log *zap.Logger) *ContactService {
	return &ContactService{
		db:       db,
		notifier: notifier,
		log:      log.Named("contact"),
	}
}

// Submit validates and stores a submission, then attempts both emails.
// Validation failures return a VALIDATION_ERROR and store nothing; a storage
// failure returns an INTERNAL_ERROR and sends nothing. Delivery failures are
// not errors: they are reflected in the result's Outcome.
func (s *ContactService) Submit(ctx context.Context, sub ContactSubmission, remoteIP string) (*ContactResult, error) {
	sub = sub.Normalize()
	log := s.log.With(zap.String("email", sub.Email), zap.String("ip", remoteIP))

	if err := ValidateContact(sub); err != nil {
		log.Info("contact submission rejected", zap.Any("fields", apperrors.FieldsOf(err)))
		return nil, err
	}

	msg := &domain.ContactMessage{
		Name:      sub.Name,
		Email:     strings.ToLower(sub.Email),
		Subject:   sub.Subject,
		Message:   sub.Message,
		IPAddress: remoteIP,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		log.Error("failed to save contact message", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to save contact message", err)
	}
	log.Info("contact message saved", zap.Uint("id", msg.ID))

	result := &ContactResult{Message: msg}
	result.OperatorNotified = s.notifier.SendOperatorNotification(ctx, msg)
	result.ConfirmationSent = s.notifier.SendSubmitterConfirmation(ctx, msg)
	result.Outcome = OutcomeFor(result.OperatorNotified, result.ConfirmationSent)

	log.Info("contact submission processed",
		zap.Uint("id", msg.ID),
		zap.Bool("operator_notified", result.OperatorNotified),
		zap.Bool("confirmation_sent", result.ConfirmationSent),
		zap.String("outcome", string(result.Outcome)))
	metrics.RecordContactSubmission(string(result.Outcome))

	return result, nil
}
