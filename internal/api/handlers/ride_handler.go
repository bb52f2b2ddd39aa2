package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/api/middleware"
	chatdomain "github.com/homeride/backend/internal/domain/chat"
	"github.com/homeride/backend/internal/service/chat"
	"github.com/homeride/backend/internal/service/rides"
)

// TravelInfo handles GET /api/rides/travel-info
func (h *Handlers) TravelInfo(c *gin.Context) {
	origin, destination, ok := h.endpoints(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Rides.TravelInfo(c.Request.Context(), origin, destination, c.QueryArray("stops")))
}

// Quote handles GET /api/rides/quote
func (h *Handlers) Quote(c *gin.Context) {
	origin, destination, ok := h.endpoints(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Rides.Quote(c.Request.Context(), origin, destination, c.QueryArray("stops")))
}

func (h *Handlers) endpoints(c *gin.Context) (string, string, bool) {
	origin := strings.TrimSpace(c.Query("origin"))
	destination := strings.TrimSpace(c.Query("destination"))
	if origin == "" || destination == "" {
		h.badRequest(c, "origin and destination are required")
		return "", "", false
	}
	return origin, destination, true
}

// OfferRide handles POST /api/rides/offer
func (h *Handlers) OfferRide(c *gin.Context) {
	var req dto.OfferRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	stops := make([]rides.StopInput, 0, len(req.Stopovers))
	for _, s := range req.Stopovers {
		stops = append(stops, rides.StopInput{City: s.City, Point: s.Point})
	}

	rd, err := h.Rides.CreateOffer(c.Request.Context(), middleware.CallerEmail(c), rides.OfferInput{
		OriginCity:       req.OriginCity,
		Origin:           req.Origin,
		DestinationCity:  req.DestinationCity,
		Destination:      req.Destination,
		Stops:            stops,
		TravelDateTime:   req.TravelDateTime,
		VehicleModel:     req.VehicleModel,
		VehicleCapacity:  req.VehicleCapacity,
		GenderPreference: req.GenderPreference,
		Price:            req.Price,
		StopoverPrices:   req.StopoverPrices,
		DriverNote:       req.DriverNote,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rd)
}

// SearchRides handles GET /api/rides
func (h *Handlers) SearchRides(c *gin.Context) {
	filter := rides.SearchFilter{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Date:        c.Query("date"),
	}
	if raw := c.Query("passengers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.badRequest(c, "passengers must be a non-negative number")
			return
		}
		filter.PassengerCount = n
	}

	list, err := h.Rides.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MyRides handles GET /api/rides/my-rides
func (h *Handlers) MyRides(c *gin.Context) {
	list, err := h.Rides.ListForUser(c.Request.Context(), middleware.CallerEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetRide handles GET /api/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	rd, err := h.Rides.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rd)
}

// JoinRide handles POST /api/rides/:id/join and answers with the updated ride
func (h *Handlers) JoinRide(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req dto.JoinRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Rides.Join(ctx, id, middleware.CallerEmail(c), rides.JoinInput{
		PickupPoint:  req.PickupPoint,
		DropoffPoint: req.DropoffPoint,
		Price:        req.Price,
		Seats:        req.NumberOfSeats,
	}); err != nil {
		h.respondError(c, err)
		return
	}

	rd, err := h.Rides.Get(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rd)
}

// CancelDriver handles POST /api/rides/:id/cancel-driver and DELETE /api/rides/:id
func (h *Handlers) CancelDriver(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.Rides.CancelAsDriver(c.Request.Context(), id, middleware.CallerEmail(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Ride cancelled successfully"})
}

// CancelPassenger handles POST /api/rides/:id/cancel-passenger
func (h *Handlers) CancelPassenger(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req dto.CancelPassengerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "Invalid request payload: "+err.Error())
			return
		}
	}
	if err := h.Rides.CancelAsPassenger(c.Request.Context(), id, middleware.CallerEmail(c), req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Booking cancelled successfully"})
}

// ChatHistory handles GET /api/rides/:id/chat
func (h *Handlers) ChatHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	messages, err := h.Chat.History(c.Request.Context(), middleware.CallerEmail(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendChat handles POST /api/rides/:id/chat
func (h *Handlers) SendChat(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req dto.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	msg, err := h.Chat.Send(c.Request.Context(), middleware.CallerEmail(c), chat.SendInput{
		RideID:         id,
		Content:        req.Content,
		Type:           chatdomain.MessageType(req.Type),
		RecipientEmail: req.RecipientEmail,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
