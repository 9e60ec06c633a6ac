package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{Database: config.DatabaseConfig{
		URL: "sqlite:///" + filepath.Join(t.TempDir(), "portfolio.db"),
	}}
	db, err := database.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// stubNotifier reports fixed delivery results and counts calls
type stubNotifier struct {
	operator     bool
	confirmation bool
	calls        int
}

func (n *stubNotifier) SendOperatorNotification(context.Context, *domain.ContactMessage) bool {
	n.calls++
	return n.operator
}

func (n *stubNotifier) SendSubmitterConfirmation(context.Context, *domain.ContactMessage) bool {
	n.calls++
	return n.confirmation
}

// recordingTransport stores sent mail and fails with err when set
type recordingTransport struct {
	mu   sync.Mutex
	sent []*Mail
	err  error
}

func (t *recordingTransport) Send(_ context.Context, m *Mail) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, m)
	return nil
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func validSubmission() ContactSubmission {
	return ContactSubmission{
		Name:    "Jo",
		Email:   "jo@x.com",
		Subject: "Hello there",
		Message: "This is a test message.",
	}
}
