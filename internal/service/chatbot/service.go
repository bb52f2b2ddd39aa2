// Package chatbot answers free-text questions about a user's rides and
// account through an LLM.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/rating"
	"github.com/homeride/backend/internal/domain/ride"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// Canned replies.
const (
	ReplyUnavailable = "Sorry, the AI model is not available right now. Please try again later."
	ReplyUnknownUser = "Unable to identify user. Please log in again."
	ReplyFailed      = "Sorry, I encountered an issue while processing your request. Please try asking differently."
	ReplyEmpty       = "Sorry, I couldn't generate a response right now."
)

// maxUpcoming caps how many rides are described to the model.
const maxUpcoming = 5

// RideLister is the part of ride.Repository the chatbot reads.
type RideLister interface {
	ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]*ride.Ride, error)
}

// RatingLister is the part of rating.Repository the chatbot reads.
type RatingLister interface {
	ListByRatee(ctx context.Context, rateeID uuid.UUID) ([]*rating.Rating, error)
}

type Config struct {
	SupportEmail string
	Timeout      time.Duration
}

type Service struct {
	llm       LLM
	employees employee.Repository
	rides     RideLister
	ratings   RatingLister
	config    Config
	logger    *logger.Logger
	now       func() time.Time
}

// NewService builds a chatbot. A nil llm makes every question answer with
// ReplyUnavailable.
func NewService(llm LLM, employees employee.Repository, rides RideLister, ratings RatingLister, config Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Service{
		llm:       llm,
		employees: employees,
		rides:     rides,
		ratings:   ratings,
		config:    config,
		logger:    log.Named("chatbot"),
		now:       time.Now,
	}
}

// Ask answers message for the user behind email. Only a blank message is an
// error; every other failure becomes a polite reply.
func (s *Service) Ask(ctx context.Context, email, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.ErrEmptyMessage
	}
	if s.llm == nil {
		return ReplyUnavailable, nil
	}
	if strings.TrimSpace(email) == "" {
		return ReplyUnknownUser, nil
	}
	if isSupportRequest(message) {
		return s.supportReply(), nil
	}

	user, err := s.employees.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, employee.ErrEmployeeNotFound) {
		s.logger.Warn("Chatbot could not load user", logger.Email(email), logger.Err(err))
	}

	kind := classify(message)
	prompt := buildPrompt(s.userContext(ctx, user, email, kind), kind, message)

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Chatbot generation failed",
			logger.Email(email),
			logger.String("question_type", string(kind)),
			logger.Err(err),
		)
		return ReplyFailed, nil
	}
	s.logger.Debug("Chatbot replied",
		logger.String("question_type", string(kind)),
		logger.Duration("latency", time.Since(start)),
	)

	if strings.TrimSpace(reply) == "" {
		return ReplyEmpty, nil
	}
	return reply, nil
}

func (s *Service) supportReply() string {
	return "I'd be happy to help you get in touch with our support team!\n\n" +
		"Please visit our Contact Page where you can send us a message directly. " +
		"Our team will get back to you within 24 hours.\n\n" +
		"You can also email us at: " + s.config.SupportEmail + "\n\n" +
		"Is there anything specific about your rides or account that I can help you with in the meantime?"
}

// isSupportRequest spots users asking for a human.
func isSupportRequest(message string) bool {
	m := strings.ToLower(message)
	has := func(s string) bool { return strings.Contains(m, s) }

	switch {
	case has("customer care"), has("customer servic"), has("support"),
		has("complaint"), has("contact us"), has("reach out"):
		return true
	case has("help") && (has("contact") || has("reach")):
		return true
	case has("issue") && has("help"):
		return true
	}
	return false
}

// userContext describes the user to the model. How much is shared depends
// on what the question is about.
func (s *Service) userContext(ctx context.Context, user *employee.Employee, email string, kind questionType) string {
	var b strings.Builder
	if user == nil {
		if kind == questionRide || kind == questionAmbiguous {
			fmt.Fprintf(&b, "User not found for email: %s\n", email)
		}
		return b.String()
	}

	if kind == questionGeneral || kind == questionFeature {
		b.WriteString("=== USER PROFILE ===\n")
		fmt.Fprintf(&b, "Name: %s\n", user.Name)
		fmt.Fprintf(&b, "Member Since: %s\n\n", user.CreatedAt.Format("Jan 02, 2006"))
		return b.String()
	}

	s.writeProfile(ctx, &b, user)

	rides, err := s.rides.ListForEmployee(ctx, user.ID)
	if err != nil {
		s.logger.Warn("Chatbot could not load rides", logger.Email(user.Email), logger.Err(err))
		return b.String()
	}

	now := s.now()
	var upcoming []*ride.Ride
	past, offered := 0, 0
	for _, rd := range rides {
		if rd.Requester.ID == user.ID {
			offered++
		}
		if rd.TravelDateTime.After(now) {
			upcoming = append(upcoming, rd)
		} else {
			past++
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].TravelDateTime.Before(upcoming[j].TravelDateTime) })

	if kind != questionAccount {
		s.writeUpcoming(ctx, &b, user, upcoming)
	}

	b.WriteString("\n=== RIDE HISTORY ===\n")
	fmt.Fprintf(&b, "Total Rides: %d\n", len(rides))
	fmt.Fprintf(&b, "Completed Rides: %d\n", past)
	fmt.Fprintf(&b, "Rides Offered: %d\n", offered)
	fmt.Fprintf(&b, "Rides Joined: %d\n", len(rides)-offered)
	return b.String()
}

func (s *Service) writeProfile(ctx context.Context, b *strings.Builder, user *employee.Employee) {
	b.WriteString("=== USER PROFILE ===\n")
	fmt.Fprintf(b, "Name: %s\n", user.Name)
	fmt.Fprintf(b, "Email: %s\n", user.Email)
	fmt.Fprintf(b, "Gender: %s\n", orDefault(user.Gender, "Not specified"))
	fmt.Fprintf(b, "Phone: %s\n", orDefault(user.PhoneNumber, "Not provided"))

	if avg, n := s.averageRating(ctx, user.ID); n > 0 {
		fmt.Fprintf(b, "Average Rating: %.1f/5.0 (%d ratings)\n", avg, n)
	} else {
		b.WriteString("Average Rating: No ratings yet\n")
	}

	fmt.Fprintf(b, "Travel Credit: ₹%.2f\n", user.TravelCredit)
	fmt.Fprintf(b, "Member Since: %s\n\n", user.CreatedAt.Format("Jan 02, 2006"))
}

func (s *Service) writeUpcoming(ctx context.Context, b *strings.Builder, user *employee.Employee, upcoming []*ride.Ride) {
	fmt.Fprintf(b, "=== UPCOMING RIDES (%d) ===\n", len(upcoming))
	if len(upcoming) == 0 {
		b.WriteString("No upcoming rides. Time to book or offer one!\n")
		return
	}

	for i, rd := range upcoming {
		if i == maxUpcoming {
			break
		}
		fmt.Fprintf(b, "\n[Ride %d]\n", i+1)
		fmt.Fprintf(b, "  Route: %s → %s\n", rd.OriginCity, rd.DestinationCity)
		fmt.Fprintf(b, "  Date/Time: %s\n", rd.TravelDateTime.Format("Jan 02, 2006 at 15:04"))
		role := "PASSENGER"
		if rd.Requester.ID == user.ID {
			role = "DRIVER"
		}
		fmt.Fprintf(b, "  Role: %s\n", role)
		fmt.Fprintf(b, "  Price: ₹%.2f\n", rd.Price)
		fmt.Fprintf(b, "  Distance: %.1f km\n", rd.DistanceKm)
		fmt.Fprintf(b, "  Duration: %d mins\n", rd.DurationMinutes)

		if rd.IsOffered() {
			fmt.Fprintf(b, "  Vehicle: %s (%d total seats)\n", rd.VehicleModel, rd.VehicleCapacity)
			fmt.Fprintf(b, "  Available: %d seats\n", rd.AvailableSeats())
			fmt.Fprintf(b, "  Gender Preference: %s\n", orDefault(rd.GenderPreference, "Any"))
			if rd.DriverNote != "" {
				fmt.Fprintf(b, "  Driver Note: %s\n", rd.DriverNote)
			}
		}

		if len(rd.Stopovers) > 0 {
			cities := make([]string, 0, len(rd.Stopovers))
			for _, st := range rd.Stopovers {
				cities = append(cities, st.City)
			}
			fmt.Fprintf(b, "  Stopovers: %s\n", strings.Join(cities, " → "))
		}

		driverRating := "N/A"
		if avg, n := s.averageRating(ctx, rd.Requester.ID); n > 0 {
			driverRating = fmt.Sprintf("%.1f", avg)
		}
		fmt.Fprintf(b, "  Driver: %s (Rating: %s)\n", rd.Requester.Name, driverRating)
	}
}

func (s *Service) averageRating(ctx context.Context, employeeID uuid.UUID) (float64, int) {
	list, err := s.ratings.ListByRatee(ctx, employeeID)
	if err != nil {
		s.logger.Warn("Chatbot could not load ratings", logger.Err(err))
		return 0, 0
	}
	if len(list) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range list {
		sum += r.Score
	}
	return float64(sum) / float64(len(list)), len(list)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
