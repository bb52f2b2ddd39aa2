package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/api/middleware"
	"github.com/homeride/backend/internal/service/chatbot"
)

// AskChatbot handles POST /api/chatbot
func (h *Handlers) AskChatbot(c *gin.Context) {
	var req dto.ChatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if h.Chatbot == nil {
		c.JSON(http.StatusOK, dto.ChatbotResponse{Reply: chatbot.ReplyUnavailable})
		return
	}

	reply, err := h.Chatbot.Ask(c.Request.Context(), middleware.CallerEmail(c), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ChatbotResponse{Reply: reply})
}
