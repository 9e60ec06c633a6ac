package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio/internal/domain"
	apperrors "portfolio/pkg/errors"
)

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ContactSubmission)
		field  string
		msg    string
	}{
		{"valid", func(*ContactSubmission) {}, "", ""},
		{"missing name", func(s *ContactSubmission) { s.Name = "" }, "name", "is required"},
		{"short name", func(s *ContactSubmission) { s.Name = "J" }, "name", "must be between 2 and 100 characters"},
		{"long name", func(s *ContactSubmission) { s.Name = strings.Repeat("a", 101) }, "name", "must be between 2 and 100 characters"},
		{"missing email", func(s *ContactSubmission) { s.Email = "" }, "email", "is required"},
		{"bad email", func(s *ContactSubmission) { s.Email = "not-an-email" }, "email", "must be a valid email address"},
		{"display name email", func(s *ContactSubmission) { s.Email = "Jo <jo@x.com>" }, "email", "must be a valid email address"},
		{"long email", func(s *ContactSubmission) { s.Email = strings.Repeat("a", 115) + "@x.com" }, "email", "must be at most 120 characters"},
		{"short subject", func(s *ContactSubmission) { s.Subject = "Hey" }, "subject", "must be between 5 and 200 characters"},
		{"short message", func(s *ContactSubmission) { s.Message = "Too short" }, "message", "must be between 10 and 2000 characters"},
		{"long message", func(s *ContactSubmission) { s.Message = strings.Repeat("m", 2001) }, "message", "must be between 10 and 2000 characters"},
		{"multibyte name counts runes", func(s *ContactSubmission) { s.Name = "Zoë" }, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			err := ValidateContact(sub.Normalize())
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.msg, apperrors.FieldsOf(err)[tt.field])
		})
	}
}

func TestValidateContactReportsEveryField(t *testing.T) {
	err := ValidateContact(ContactSubmission{})
	require.Error(t, err)

	fields := apperrors.FieldsOf(err)
	assert.Len(t, fields, 4)
	for _, f := range []string{"name", "email", "subject", "message"} {
		assert.Equal(t, "is required", fields[f])
	}
}

func TestNormalizeTrimsWhitespace(t *testing.T) {
	sub := ContactSubmission{Name: "  Jo ", Email: " jo@x.com\n", Subject: "\tHello there ", Message: " This is a test message. "}
	assert.Equal(t, validSubmission(), sub.Normalize())
}

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		operator, confirmation bool
		want                   Outcome
		category               string
		text                   string
	}{
		{true, true, OutcomeDelivered, FlashSuccess, "Your message has been sent successfully! A confirmation email has been sent to your inbox."},
		{true, false, OutcomeConfirmationFailed, FlashWarning, "Your message has been received! However, there was an issue sending the confirmation email."},
		{false, true, OutcomeNotificationFailed, FlashWarning, "Your message has been received! However, there was an issue with our notification system."},
		{false, false, OutcomeEmailUnavailable, FlashWarning, "Your message has been saved! However, there was an issue with our email system. We will contact you soon."},
	}

	for _, tt := range tests {
		got := OutcomeFor(tt.operator, tt.confirmation)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.category, got.Category())
		assert.Equal(t, tt.text, got.Message())
	}
}

func TestContactSubmitOutcomes(t *testing.T) {
	tests := []struct {
		name         string
		operator     bool
		confirmation bool
		want         Outcome
	}{
		{"both delivered", true, true, OutcomeDelivered},
		{"confirmation failed", true, false, OutcomeConfirmationFailed},
		{"notification failed", false, true, OutcomeNotificationFailed},
		{"email unavailable", false, false, OutcomeEmailUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			notifier := &stubNotifier{operator: tt.operator, confirmation: tt.confirmation}
			svc := NewContactService(db, notifier, zap.NewNop())

			res, err := svc.Submit(context.Background(), validSubmission(), "203.0.113.9")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.operator, res.OperatorNotified)
			assert.Equal(t, tt.confirmation, res.ConfirmationSent)
			assert.Equal(t, 2, notifier.calls)

			var rows []domain.ContactMessage
			require.NoError(t, db.Find(&rows).Error)
			require.Len(t, rows, 1)
			assert.False(t, rows[0].Read)
			assert.Equal(t, "203.0.113.9", rows[0].IPAddress)
			assert.Equal(t, "Hello there", rows[0].Subject)
		})
	}
}

func TestContactSubmitLowercasesEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db, &stubNotifier{}, zap.NewNop())

	sub := validSubmission()
	sub.Email = "Jo@X.com"
	res, err := svc.Submit(context.Background(), sub, "")
	require.NoError(t, err)
	assert.Equal(t, "jo@x.com", res.Message.Email)
}

func TestContactSubmitInvalidStoresNothing(t *testing.T) {
	db := newTestDB(t)
	notifier := &stubNotifier{operator: true, confirmation: true}
	svc := NewContactService(db, notifier, zap.NewNop())

	sub := validSubmission()
	sub.Message = "short"
	_, err := svc.Submit(context.Background(), sub, "203.0.113.9")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.FieldsOf(err), "message")

	var n int64
	require.NoError(t, db.Model(&domain.ContactMessage{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, notifier.calls)
}

func TestContactSubmitPersistenceFailureSendsNothing(t *testing.T) {
	db := newTestDB(t)
	notifier := &stubNotifier{operator: true, confirmation: true}
	svc := NewContactService(db, notifier, zap.NewNop())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Submit(context.Background(), validSubmission(), "203.0.113.9")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternalError, apperrors.CodeOf(err))
	assert.Zero(t, notifier.calls)
}
