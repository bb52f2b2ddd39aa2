package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/api/middleware"
)

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	list, err := h.Notifications.ListUnread(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), middleware.CallerEmail(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Notification marked as read"})
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *Handlers) MarkAllRead(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
