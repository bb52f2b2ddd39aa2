package dto

import (
	"time"

	"github.com/google/uuid"
)

// StopoverRequest is one intermediate stop on an offer
type StopoverRequest struct {
	City  string `json:"city"`
	Point string `json:"point"`
}

// OfferRideRequest represents a driver publishing a ride
type OfferRideRequest struct {
	OriginCity       string            `json:"origin_city"`
	Origin           string            `json:"origin" binding:"required"`
	DestinationCity  string            `json:"destination_city"`
	Destination      string            `json:"destination" binding:"required"`
	Stopovers        []StopoverRequest `json:"stopovers"`
	TravelDateTime   time.Time         `json:"travel_date_time" binding:"required"`
	VehicleModel     string            `json:"vehicle_model"`
	VehicleCapacity  int               `json:"vehicle_capacity" binding:"required,min=1"`
	GenderPreference string            `json:"gender_preference"`
	Price            *float64          `json:"price"`
	StopoverPrices   []float64         `json:"stopover_prices"`
	DriverNote       string            `json:"driver_note"`
}

// JoinRideRequest represents a passenger booking part of a ride.
// Validation happens in the ride service so the error order is stable.
type JoinRideRequest struct {
	PickupPoint   string   `json:"pickup_point"`
	DropoffPoint  string   `json:"dropoff_point"`
	Price         *float64 `json:"price"`
	NumberOfSeats *int     `json:"number_of_seats"`
}

// CancelPassengerRequest carries an optional reason
type CancelPassengerRequest struct {
	Reason string `json:"reason"`
}

// RatingRequest represents a rating for a co-traveller
type RatingRequest struct {
	RideID  uuid.UUID `json:"ride_id" binding:"required"`
	RateeID uuid.UUID `json:"ratee_id" binding:"required"`
	Score   int       `json:"score"`
	Comment string    `json:"comment"`
}

// ChatMessageRequest is one line posted to a ride chat
type ChatMessageRequest struct {
	Content        string `json:"content"`
	Type           string `json:"type"`
	RecipientEmail string `json:"recipient_email"`
}

// ChatbotRequest is a question for the assistant
type ChatbotRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatbotResponse wraps the assistant's answer
type ChatbotResponse struct {
	Reply string `json:"reply"`
}

// UpdateProfileRequest edits the caller's own profile. Omitted fields are
// left unchanged; a blank name is ignored.
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

// AdminUpdateEmployeeRequest changes another employee's role or credit
type AdminUpdateEmployeeRequest struct {
	Role         *string  `json:"role"`
	TravelCredit *float64 `json:"travel_credit"`
}

// AddressResponse is the reverse-geocoding answer
type AddressResponse struct {
	Address string `json:"address"`
}

// Error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
