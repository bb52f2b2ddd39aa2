// Package chat carries the per-ride group chat between a driver and their
// passengers.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/chat"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/ride"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
	"github.com/homeride/backend/pkg/websocket"
)

// MaxContentLength caps a single chat line, in characters.
const MaxContentLength = 2000

// Broadcaster fans messages out to live connections.
type Broadcaster interface {
	BroadcastToRide(rideID string, msg websocket.Message, except string) int
	SendToUser(email string, msg websocket.Message) int
}

// ChatNotifier raises the unread-chat notification.
type ChatNotifier interface {
	NotifyChat(ctx context.Context, recipient employee.Employee, rideID uuid.UUID, message, link string) (*notification.Notification, error)
}

// SendInput is one chat line. RecipientEmail is only used for PRIVATE lines.
type SendInput struct {
	RideID         uuid.UUID
	Content        string
	Type           chat.MessageType
	RecipientEmail string
}

type Service struct {
	messages  chat.Repository
	rides     ride.Repository
	employees employee.Repository
	hub       Broadcaster
	notifier  ChatNotifier
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(messages chat.Repository, rides ride.Repository, employees employee.Repository, hub Broadcaster, notifier ChatNotifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		messages:  messages,
		rides:     rides,
		employees: employees,
		hub:       hub,
		notifier:  notifier,
		logger:    log.Named("chat"),
		now:       time.Now,
	}
}

// Send stores a line from senderEmail, delivers it live and raises chat
// notifications for the other members.
func (s *Service) Send(ctx context.Context, senderEmail string, in SendInput) (*chat.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperrors.ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, apperrors.BadRequest(fmt.Sprintf("Message must be at most %d characters", MaxContentLength), nil)
	}

	sender, err := s.employees.GetByEmail(ctx, senderEmail)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat.Service.Send: load sender: %w", err)
	}

	rd, err := s.memberRide(ctx, sender.Email, in.RideID)
	if err != nil {
		return nil, err
	}

	msgType := chat.MessageType(strings.ToUpper(string(in.Type)))
	if msgType != chat.TypePrivate {
		msgType = chat.TypeGroup
	}
	var recipient *employee.Employee
	if msgType == chat.TypePrivate {
		recipient = memberByEmail(rd, in.RecipientEmail)
		if recipient == nil {
			return nil, apperrors.BadRequest("Recipient is not a member of this ride", nil)
		}
	}

	m := &chat.Message{
		RideID:                  rd.ID,
		SenderEmail:             sender.Email,
		SenderName:              sender.Name,
		SenderProfilePictureURL: sender.ProfilePictureURL,
		Type:                    msgType,
		Content:                 content,
		Timestamp:               s.now(),
	}
	if recipient != nil {
		m.RecipientEmail = recipient.Email
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("chat.Service.Send: %w", err)
	}

	envelope := websocket.Message{Type: websocket.TypeChatMessage, RideID: rd.ID.String(), Data: m}
	if recipient != nil {
		s.hub.SendToUser(recipient.Email, envelope)
		s.hub.SendToUser(sender.Email, envelope)
	} else {
		s.hub.BroadcastToRide(rd.ID.String(), envelope, "")
	}

	s.notifyMembers(ctx, rd, sender, recipient)
	return m, nil
}

// HandleSocket adapts Send to lines typed into an open WebSocket.
func (s *Service) HandleSocket(ctx context.Context, email, rideID, content string) error {
	id, err := uuid.Parse(rideID)
	if err != nil {
		return apperrors.BadRequest("Invalid ride id", err)
	}
	_, err = s.Send(ctx, email, SendInput{RideID: id, Content: content, Type: chat.TypeGroup})
	return err
}

// History returns the ride's messages oldest first. Private lines are only
// shown to their sender and recipient.
func (s *Service) History(ctx context.Context, email string, rideID uuid.UUID) ([]*chat.Message, error) {
	if _, err := s.memberRide(ctx, email, rideID); err != nil {
		return nil, err
	}

	all, err := s.messages.ListByRide(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("chat.Service.History: %w", err)
	}

	out := make([]*chat.Message, 0, len(all))
	for _, m := range all {
		if m.Type == chat.TypePrivate &&
			!strings.EqualFold(m.SenderEmail, email) && !strings.EqualFold(m.RecipientEmail, email) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// CanAccess reports whether email may follow the ride's live channel.
func (s *Service) CanAccess(ctx context.Context, email, rideID string) bool {
	id, err := uuid.Parse(rideID)
	if err != nil {
		return false
	}
	_, err = s.memberRide(ctx, email, id)
	return err == nil
}

func (s *Service) memberRide(ctx context.Context, email string, rideID uuid.UUID) (*ride.Ride, error) {
	rd, err := s.rides.GetByID(ctx, rideID)
	if errors.Is(err, ride.ErrRideNotFound) {
		return nil, apperrors.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat.Service: load ride: %w", err)
	}
	if memberByEmail(rd, email) == nil {
		return nil, apperrors.ErrNotRideMember
	}
	return rd, nil
}

func (s *Service) notifyMembers(ctx context.Context, rd *ride.Ride, sender *employee.Employee, recipient *employee.Employee) {
	msg := fmt.Sprintf("You have a new message in the chat for your ride from %s to %s", rd.OriginCity, rd.DestinationCity)
	link := "/ride/" + rd.ID.String()

	for _, member := range rd.Members() {
		if member.HasEmail(sender.Email) {
			continue
		}
		if recipient != nil && member.ID != recipient.ID {
			continue
		}
		if _, err := s.notifier.NotifyChat(ctx, member, rd.ID, msg, link); err != nil {
			s.logger.Warn("Failed to raise chat notification",
				logger.Err(err),
				logger.RideID(rd.ID.String()),
				logger.Email(member.Email),
			)
		}
	}
}

func memberByEmail(rd *ride.Ride, email string) *employee.Employee {
	if email == "" {
		return nil
	}
	if rd.IsRequester(email) {
		return &rd.Requester
	}
	if p, ok := rd.ParticipantByEmail(email); ok {
		return &p.Employee
	}
	return nil
}
