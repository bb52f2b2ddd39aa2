package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/api/middleware"
	"github.com/homeride/backend/internal/service/employees"
)

// GetMe handles GET /api/employees/me
func (h *Handlers) GetMe(c *gin.Context) {
	e, err := h.Employees.Me(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// UpdateMe handles PUT /api/employees/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	e, err := h.Employees.UpdateProfile(c.Request.Context(), middleware.CallerEmail(c), employees.ProfileUpdate{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// GetProfile handles GET /api/employees/:id
func (h *Handlers) GetProfile(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	p, err := h.Employees.PublicProfile(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
