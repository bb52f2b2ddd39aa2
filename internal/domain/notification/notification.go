package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type tags what a notification is about
type Type string

const (
	TypeRideOffered        Type = "RIDE_OFFERED"
	TypeRideJoined         Type = "RIDE_JOINED"
	TypeRideBooked         Type = "RIDE_BOOKED"
	TypeRideCancelled      Type = "RIDE_CANCELLED"
	TypePassengerCancelled Type = "PASSENGER_CANCELLED"
	TypeRatingReceived     Type = "RATING_RECEIVED"
	TypeChatMessage        Type = "CHAT_MESSAGE"
)

// Notification is an in-app message for one employee.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Message   string     `json:"message"`
	Link      string     `json:"link,omitempty"`
	Type      Type       `json:"type"`
	RideID    *uuid.UUID `json:"ride_id,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

// Repository interface
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// FindUnread returns the newest unread notification of a type for a
	// user and ride, or ErrNotificationNotFound.
	FindUnread(ctx context.Context, userID, rideID uuid.UUID, t Type) (*Notification, error)
	// Touch moves a notification's timestamp to now.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	ListUnread(ctx context.Context, userID uuid.UUID) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

var ErrNotificationNotFound = errors.New("notification not found")
