package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageType is GROUP for the ride channel or PRIVATE for a direct message
type MessageType string

const (
	TypeGroup   MessageType = "GROUP"
	TypePrivate MessageType = "PRIVATE"
)

// Message is a persisted chat line on a ride.
type Message struct {
	ID                      uuid.UUID   `json:"id"`
	RideID                  uuid.UUID   `json:"ride_id"`
	SenderEmail             string      `json:"sender_email"`
	SenderName              string      `json:"sender_name"`
	SenderProfilePictureURL string      `json:"sender_profile_picture_url,omitempty"`
	RecipientEmail          string      `json:"recipient_email,omitempty"`
	Type                    MessageType `json:"type"`
	Content                 string      `json:"content"`
	Timestamp               time.Time   `json:"timestamp"`
}

// Repository interface
type Repository interface {
	Create(ctx context.Context, m *Message) error
	// ListByRide returns messages oldest first.
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*Message, error)
}
