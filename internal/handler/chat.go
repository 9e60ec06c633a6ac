package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	chatReadLimit  = 4096
	chatPongWait   = 60 * time.Second
	chatPingPeriod = 50 * time.Second
	chatWriteWait  = 10 * time.Second
)

// chat upgrades to a WebSocket and answers each chat_message frame
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Features.ChatEnabled {
		h.renderError(w, r, http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.reqLog(r).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.reqLog(r).Named("chat")
	log.Info("client connected to chat")

	conn.SetReadLimit(chatReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(chatPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(chatPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(chatWriteWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("chat connection closed", zap.Error(err))
			}
			return
		}

		reply := h.svc.Chat.Handle(raw)
		_ = conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("failed to write chat response", zap.Error(err))
			return
		}
	}
}
