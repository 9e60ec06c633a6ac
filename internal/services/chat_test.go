package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChatReply(t *testing.T) {
	svc := NewChatService(zap.NewNop())

	tests := []struct {
		in   string
		want string
	}{
		{"Hello there", "Hello! How can I help you learn more about my skills and projects?"},
		{"HI", "Hi there! Feel free to ask me about my experience or projects."},
		{"show me a project", "Check out my projects section to see my work with modern technologies!"},
		{"what SKILLS do you have", "I work with Go, PostgreSQL, JavaScript, Docker, and more. See the skills section!"},
		// "hello" is checked before "project"
		{"hello, any projects?", "Hello! How can I help you learn more about my skills and projects?"},
		{"what's up", chatDefaultReply},
		{"", chatDefaultReply},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.Reply(tt.in), tt.in)
	}
}

func TestChatHandle(t *testing.T) {
	svc := NewChatService(zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	out := svc.Handle([]byte(`{"event":"chat_message","message":"project?"}`))
	assert.Equal(t, ChatResponseEvent, out.Event)
	assert.Equal(t, "Check out my projects section to see my work with modern technologies!", out.Message)
	assert.Equal(t, "2024-03-01T09:30:00Z", out.Timestamp)

	out = svc.Handle([]byte(`{not json`))
	assert.Equal(t, ChatErrorReply, out.Message)

	out = svc.Handle([]byte(`{"event":"typing"}`))
	assert.Equal(t, ChatErrorReply, out.Message)
}
