package services

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/metrics"
)

// Chat frame event names
const (
	ChatMessageEvent  = "chat_message"
	ChatResponseEvent = "chat_response"
)

// ChatErrorReply is sent when an inbound frame cannot be handled
const ChatErrorReply = "Sorry, I encountered an error. Please try again."

const chatDefaultReply = "I'm an AI assistant for this portfolio. Ask me about projects, skills, or experience!"

// Keywords are matched in this order; the first hit wins.
var chatReplies = []struct {
	keyword string
	reply   string
}{
	{"hello", "Hello! How can I help you learn more about my skills and projects?"},
	{"hi", "Hi there! Feel free to ask me about my experience or projects."},
	{"project", "Check out my projects section to see my work with modern technologies!"},
	{"skill", "I work with Go, PostgreSQL, JavaScript, Docker, and more. See the skills section!"},
}

// ChatFrame is the JSON envelope exchanged over the chat socket
type ChatFrame struct {
	Event     string `json:"event"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChatService answers chat widget messages with canned replies
type ChatService struct {
	log *zap.Logger
	now func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(log *zap.Logger) *ChatService {
	return &ChatService{log: log.Named("chat"), now: time.Now}
}

// Reply picks the canned answer for message
func (s *ChatService) Reply(message string) string {
	message = strings.ToLower(message)
	for _, r := range chatReplies {
		if strings.Contains(message, r.keyword) {
			return r.reply
		}
	}
	return chatDefaultReply
}

// Handle decodes one inbound frame and returns the response frame. Malformed
// or unexpected frames get the apology reply.
func (s *ChatService) Handle(raw []byte) ChatFrame {
	metrics.RecordChatMessage()

	var in ChatFrame
	reply := ChatErrorReply
	if err := json.Unmarshal(raw, &in); err != nil {
		s.log.Warn("malformed chat frame", zap.Error(err))
	} else if in.Event != ChatMessageEvent {
		s.log.Warn("unexpected chat event", zap.String("event", in.Event))
	} else {
		reply = s.Reply(in.Message)
	}

	return ChatFrame{
		Event:     ChatResponseEvent,
		Message:   reply,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
}
