package server

import (
	"log/slog"

	"creatorhub/internal/middleware"
	"creatorhub/internal/models"
	"creatorhub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// UpgradeRequired rejects plain HTTP requests to websocket endpoints.
func (s *Server) UpgradeRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return c.Next()
	}
}

// attachFunc registers an authenticated connection with a relay.
type attachFunc func(conn *websocket.Conn, userID uint) (*notifications.Client, error)

// serveRelay runs one connection's pumps until it closes. AuthRequired has
// already populated userID before the upgrade.
func serveRelay(hub string, attach attachFunc) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := attach(conn, userID)
		if err != nil {
			middleware.Logger.Warn("websocket registration failed",
				slog.String("hub", hub),
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		client.Run()
	})
}

// WebSocketChatHandler handles WebSocket connections for real-time chat.
// Clients join conversation rooms with joinConversation and receive
// newMessage and typing events for rooms they joined.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return serveRelay("chat", s.chatRelay.Attach)
}

// WebSocketNotificationsHandler pushes the user's new notifications as they are created.
func (s *Server) WebSocketNotificationsHandler() fiber.Handler {
	return serveRelay("notifications", s.notificationRelay.Attach)
}
