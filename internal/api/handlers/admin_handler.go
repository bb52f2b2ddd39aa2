package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/service/employees"
)

// ListEmployees handles GET /api/admin/employees
func (h *Handlers) ListEmployees(c *gin.Context) {
	list, err := h.Employees.Directory(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Stats handles GET /api/admin/stats
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.Employees.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateEmployee handles PUT /api/admin/employees/:id
func (h *Handlers) UpdateEmployee(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req dto.AdminUpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	e, err := h.Employees.UpdateEmployee(c.Request.Context(), id, employees.AdminUpdate{
		Role:         req.Role,
		TravelCredit: req.TravelCredit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
