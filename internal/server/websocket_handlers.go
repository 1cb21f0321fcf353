package server

import (
	"log"

	"kforum/internal/featureflags"
	"kforum/internal/middleware"
	"kforum/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler returns the realtime feed handler. Authentication is
// handled by route middleware and userID is read from connection locals.
// The feed is push-only: post, comment and moderation events fan out from
// Redis through the hub.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		uid, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		if s.hub == nil || !s.featureFlags.Enabled(featureflags.FlagRealtimeFeed, uid) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime feed unavailable"}`))
			_ = conn.Close()
			return
		}

		client := notifications.NewClient(s.hub, conn, uid)
		if !s.hub.RegisterClient(client) {
			log.Printf("WebSocket: connection limit reached for user %d", uid)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"connection limit reached"}`))
			_ = conn.Close()
			return
		}

		client.TrySend([]byte(`{"event":"connected"}`))

		// Write pump runs in a goroutine; read pump blocks until disconnect
		// and unregisters the client.
		go client.WritePump()
		client.ReadPump()
	})
}
