package tetris

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = pongWait * 9 / 10
	maxMessageSize      = 1024
	maxConsecutiveError = 3
)

// readPump はクライアントからのメッセージを読み込み、inputEvents チャネルに送信します。
func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		if r := recover(); r != nil {
			client.logger.Error("panic in readPump", zap.Any("panic", r))
		}
		select {
		case sm.unregister <- client:
		case <-sm.quit:
		}
		client.Conn.Close()
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.logger.Warn("websocket closed unexpectedly", zap.Error(err))
			} else {
				client.logger.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.logger.Debug("invalid client message", zap.Error(err))
			continue
		}

		select {
		case sm.inputEvents <- clientEvent{MatchID: client.MatchID, ClientMessage: msg}:
		default:
			client.logger.Warn("input channel full, dropping message")
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	consecutiveErrors := 0
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// マネージャーがチャネルを閉じた
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				consecutiveErrors++
				c.logger.Warn("failed to write message",
					zap.Int("attempt", consecutiveErrors),
					zap.Error(err))
				if consecutiveErrors >= maxConsecutiveError {
					return
				}
				continue
			}
			consecutiveErrors = 0

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
