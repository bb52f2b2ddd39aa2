package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
)

// Sent is one notification captured by Notifier.
type Sent struct {
	To      string
	Type    notification.Type
	Message string
	Link    string
	RideID  *uuid.UUID
}

// Notifier records notifications instead of storing them.
type Notifier struct {
	mu   sync.Mutex
	sent []Sent
	// Err, when set, is returned by every call.
	Err error
}

func (n *Notifier) Notify(_ context.Context, recipient employee.Employee, t notification.Type, message, link string, rideID *uuid.UUID) (*notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return nil, n.Err
	}
	n.sent = append(n.sent, Sent{To: recipient.Email, Type: t, Message: message, Link: link, RideID: rideID})
	return &notification.Notification{ID: uuid.New(), UserID: recipient.ID, Type: t, Message: message, Link: link, RideID: rideID}, nil
}

func (n *Notifier) NotifyChat(ctx context.Context, recipient employee.Employee, rideID uuid.UUID, message, link string) (*notification.Notification, error) {
	return n.Notify(ctx, recipient, notification.TypeChatMessage, message, link, &rideID)
}

// Sent returns a copy of everything recorded so far.
func (n *Notifier) Sent() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Sent(nil), n.sent...)
}

// To returns what was sent to email.
func (n *Notifier) To(email string) []Sent {
	var out []Sent
	for _, s := range n.Sent() {
		if s.To == email {
			out = append(out, s)
		}
	}
	return out
}
