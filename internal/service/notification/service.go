// Package notification stores in-app notifications and pushes them to live
// WebSocket connections.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
	"github.com/homeride/backend/pkg/websocket"
)

// Pusher delivers a message to every live connection of a user.
type Pusher interface {
	SendToUser(email string, msg websocket.Message) int
}

type noopPusher struct{}

func (noopPusher) SendToUser(string, websocket.Message) int { return 0 }

// Service creates, lists and acknowledges notifications.
type Service struct {
	repo      notification.Repository
	employees employee.Repository
	pusher    Pusher
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(repo notification.Repository, employees employee.Repository, pusher Pusher, log *logger.Logger) *Service {
	if pusher == nil {
		pusher = noopPusher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:      repo,
		employees: employees,
		pusher:    pusher,
		logger:    log.Named("notification"),
		now:       time.Now,
	}
}

// Notify stores a notification for recipient and pushes it to their open
// connections.
func (s *Service) Notify(ctx context.Context, recipient employee.Employee, t notification.Type, message, link string, rideID *uuid.UUID) (*notification.Notification, error) {
	n := &notification.Notification{
		UserID:  recipient.ID,
		Message: message,
		Link:    link,
		Type:    t,
		RideID:  rideID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("notification.Service.Notify: %w", err)
	}

	s.push(recipient.Email, n)
	return n, nil
}

// NotifyChat raises a CHAT_MESSAGE notification for the ride. An unread one
// for the same user and ride is moved to the top instead of duplicated.
func (s *Service) NotifyChat(ctx context.Context, recipient employee.Employee, rideID uuid.UUID, message, link string) (*notification.Notification, error) {
	existing, err := s.repo.FindUnread(ctx, recipient.ID, rideID, notification.TypeChatMessage)
	switch {
	case err == nil:
		now := s.now()
		if err := s.repo.Touch(ctx, existing.ID, now); err != nil {
			return nil, fmt.Errorf("notification.Service.NotifyChat: %w", err)
		}
		existing.CreatedAt = now
		s.push(recipient.Email, existing)
		return existing, nil
	case errors.Is(err, notification.ErrNotificationNotFound):
		return s.Notify(ctx, recipient, notification.TypeChatMessage, message, link, &rideID)
	default:
		return nil, fmt.Errorf("notification.Service.NotifyChat: %w", err)
	}
}

func (s *Service) ListUnread(ctx context.Context, email string) ([]*notification.Notification, error) {
	user, err := s.employee(ctx, email)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListUnread(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("notification.Service.ListUnread: %w", err)
	}
	if list == nil {
		list = []*notification.Notification{}
	}
	return list, nil
}

// MarkRead acknowledges one of the user's notifications.
func (s *Service) MarkRead(ctx context.Context, email string, id uuid.UUID) error {
	user, err := s.employee(ctx, email)
	if err != nil {
		return err
	}
	err = s.repo.MarkRead(ctx, id, user.ID)
	if errors.Is(err, notification.ErrNotificationNotFound) {
		return apperrors.ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("notification.Service.MarkRead: %w", err)
	}
	return nil
}

// MarkAllRead acknowledges every unread notification and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, email string) (int64, error) {
	user, err := s.employee(ctx, email)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("notification.Service.MarkAllRead: %w", err)
	}
	return n, nil
}

func (s *Service) employee(ctx context.Context, email string) (*employee.Employee, error) {
	e, err := s.employees.GetByEmail(ctx, email)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("notification.Service: load employee: %w", err)
	}
	return e, nil
}

func (s *Service) push(email string, n *notification.Notification) {
	if email == "" {
		return
	}
	delivered := s.pusher.SendToUser(email, websocket.Message{Type: websocket.TypeNotification, Data: n})
	s.logger.Debug("Notification pushed",
		logger.Email(email),
		logger.String("type", string(n.Type)),
		logger.Int("connections", delivered),
	)
}
