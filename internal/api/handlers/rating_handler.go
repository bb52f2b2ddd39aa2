package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/api/middleware"
	ratingsvc "github.com/homeride/backend/internal/service/rating"
)

// SubmitRating handles POST /api/ratings
func (h *Handlers) SubmitRating(c *gin.Context) {
	var req dto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	r, err := h.Ratings.Submit(c.Request.Context(), middleware.CallerEmail(c), ratingsvc.SubmitInput{
		RideID:  req.RideID,
		RateeID: req.RateeID,
		Score:   req.Score,
		Comment: req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// MyRatings handles GET /api/ratings/my-ratings
func (h *Handlers) MyRatings(c *gin.Context) {
	list, err := h.Ratings.Received(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GivenRatings handles GET /api/ratings/given
func (h *Handlers) GivenRatings(c *gin.Context) {
	list, err := h.Ratings.Given(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
