package server

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v5"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/relay"
)

const writeWait = 10 * time.Second

// notificationEvent is pushed for each payment request addressed to the
// connected wallet.
type notificationEvent struct {
	Type         string                  `json:"type"`
	Notification core.NotificationRecord `json:"notification"`
}

// clientMessage is what the UI may send back. "forget" lets a dismissed
// toast resurface if the request is still pending on the next poll.
type clientMessage struct {
	Type           string `json:"type"`
	NotificationID string `json:"notificationId"`
}

// watchNotifications upgrades to a websocket and streams pending payment
// requests for walletAddress until the client disconnects. Each connection
// has its own watcher, so a request is pushed at most once per connection.
func (s *Server) watchNotifications(c *echo.Context) error {
	if !s.requireRelay(c) {
		return nil
	}
	wallet, ok := walletParam(c)
	if !ok {
		return nil
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(s.base)
	defer cancel()

	watcher := relay.NewWatcher(s.relay,
		relay.WithInterval(s.pollInterval),
		relay.WithWatcherLogger(s.logger))

	go func() {
		defer cancel()
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read failed", zap.Error(err))
				}
				return
			}
			if msg.Type == "forget" && msg.NotificationID != "" {
				watcher.Forget(msg.NotificationID)
			}
		}
	}()

	s.logger.Info("watching notifications", zap.String("wallet", wallet))
	watcher.Watch(ctx, wallet, func(rec core.NotificationRecord) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(notificationEvent{Type: "payment_request", Notification: rec}); err != nil {
			s.logger.Debug("websocket write failed", zap.Error(err))
			cancel()
		}
	})

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return nil
}
