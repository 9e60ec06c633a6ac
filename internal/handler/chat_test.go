package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/config"
	"portfolio/internal/services"
)

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestChatSocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()
	conn := dialChat(t, srv)

	cases := []struct {
		send string
		want string
	}{
		{`{"event":"chat_message","message":"Hello!"}`, "Hello! How can I help you learn more about my skills and projects?"},
		{`{"event":"chat_message","message":"what SKILLS do you have"}`, "I work with Go, PostgreSQL, JavaScript, Docker, and more. See the skills section!"},
		{`not json`, services.ChatErrorReply},
	}
	for _, tc := range cases {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.send)))

		var frame services.ChatFrame
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, services.ChatResponseEvent, frame.Event)
		assert.Equal(t, tc.want, frame.Message, tc.send)
		assert.NotEmpty(t, frame.Timestamp)
	}
}

func TestChatDisabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Features.ChatEnabled = false })
	resp := env.get("/ws/chat")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	header := http.Header{"Origin": {"https://evil.example.org"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
