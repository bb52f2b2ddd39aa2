package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/service/routing"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// Reverse geocoding always answers 200 with one of these when no address is found.
const (
	addressNotFound    = "Location not found"
	addressUnavailable = "Service unavailable"
)

// Geocode handles GET /api/maps/geocode?address=
func (h *Handlers) Geocode(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		h.badRequest(c, "address is required")
		return
	}

	loc, err := h.maps().Geocode(c.Request.Context(), address)
	if err != nil {
		if !errors.Is(err, routing.ErrNoResults) && !errors.Is(err, routing.ErrNotConfigured) {
			h.Logger.Warn("Geocoding failed", logger.String("address", address), logger.Err(err))
		}
		h.respondError(c, apperrors.ErrLocationNotFound)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// ReverseGeocode handles GET /api/maps/reverse-geocode?lat=&lng=
func (h *Handlers) ReverseGeocode(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		h.badRequest(c, "lat and lng must be numbers")
		return
	}

	address, err := h.maps().ReverseGeocode(c.Request.Context(), routing.Location{Lat: lat, Lng: lng})
	switch {
	case errors.Is(err, routing.ErrNotConfigured):
		address = addressUnavailable
	case err != nil:
		if !errors.Is(err, routing.ErrNoResults) {
			h.Logger.Warn("Reverse geocoding failed",
				logger.Float64("lat", lat), logger.Float64("lng", lng), logger.Err(err))
		}
		address = addressNotFound
	}
	c.JSON(http.StatusOK, dto.AddressResponse{Address: address})
}

func (h *Handlers) maps() routing.AddressLookup {
	if h.Maps == nil {
		return routing.Unconfigured{}
	}
	return h.Maps
}
