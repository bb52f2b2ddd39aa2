package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/middleware"
	"github.com/homeride/backend/pkg/logger"
	"github.com/homeride/backend/pkg/websocket"
)

// HandleWebSocket handles GET /ws. The caller is already authenticated, so
// the connection is keyed by the token's email.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	email := middleware.CallerEmail(c)

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Email(email), logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, email, h.Chat.HandleSocket, h.Logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
