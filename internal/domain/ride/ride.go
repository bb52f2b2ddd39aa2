package ride

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
)

// Status represents ride status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Type distinguishes driver offers from passenger requests
type Type string

const (
	TypeOffered   Type = "OFFERED"
	TypeRequested Type = "REQUESTED"
)

// GenderFemaleOnly restricts a ride to female participants.
const GenderFemaleOnly = "FEMALE_ONLY"

// Stopover is an intermediate stop, in travel order.
type Stopover struct {
	ID    uuid.UUID `json:"id"`
	City  string    `json:"city"`
	Point string    `json:"point"`
	Lat   *float64  `json:"lat,omitempty"`
	Lng   *float64  `json:"lng,omitempty"`
}

// Participant is an employee booked on part of a ride.
type Participant struct {
	ID            uuid.UUID         `json:"id"`
	RideID        uuid.UUID         `json:"ride_id"`
	Employee      employee.Employee `json:"participant"`
	PickupPoint   string            `json:"pickup_point"`
	DropoffPoint  string            `json:"dropoff_point"`
	Price         float64           `json:"price"`
	NumberOfSeats int               `json:"number_of_seats"`
	JoinedAt      time.Time         `json:"joined_at"`
}

// Seats returns the booked seat count; unset counts as one seat.
func (p *Participant) Seats() int {
	if p.NumberOfSeats < 1 {
		return 1
	}
	return p.NumberOfSeats
}

// Ride is a carpool offer between two cities with optional stopovers.
type Ride struct {
	ID               uuid.UUID         `json:"id"`
	Requester        employee.Employee `json:"requester"`
	OriginCity       string            `json:"origin_city"`
	Origin           string            `json:"origin"`
	DestinationCity  string            `json:"destination_city"`
	Destination      string            `json:"destination"`
	Stopovers        []Stopover        `json:"stopovers"`
	TravelDateTime   time.Time         `json:"travel_date_time"`
	Status           Status            `json:"status"`
	Type             Type              `json:"ride_type"`
	VehicleModel     string            `json:"vehicle_model,omitempty"`
	VehicleCapacity  int               `json:"vehicle_capacity"`
	GenderPreference string            `json:"gender_preference,omitempty"`
	Price            float64           `json:"price"`
	PricePerKm       float64           `json:"price_per_km"`
	// StopoverPrices holds one price per segment, in path order.
	StopoverPrices   []float64     `json:"stopover_prices"`
	DurationMinutes  int           `json:"duration"`
	DistanceKm       float64       `json:"distance"`
	DirectDistanceKm float64       `json:"direct_distance"`
	RoutePolyline    string        `json:"route_polyline,omitempty"`
	DriverNote       string        `json:"driver_note,omitempty"`
	Participants     []Participant `json:"participants"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Repository interface
type Repository interface {
	// Create stores the ride with its stopovers and segment prices atomically.
	Create(ctx context.Context, ride *Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)
	// ListOfferedAfter returns offered rides departing after t.
	ListOfferedAfter(ctx context.Context, t time.Time) ([]*Ride, error)
	// ListForEmployee returns rides the employee drives or has joined.
	ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]*Ride, error)
	// AddParticipant re-checks capacity and duplicates under a row lock.
	AddParticipant(ctx context.Context, p *Participant) error
	RemoveParticipant(ctx context.Context, rideID, participantID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Errors
var (
	ErrRideNotFound        = errors.New("ride not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNotEnoughSeats      = errors.New("not enough seats available")
	ErrAlreadyJoined       = errors.New("employee already joined this ride")
)

// SeatsBooked sums the seats held by all participants.
func (r *Ride) SeatsBooked() int {
	total := 0
	for i := range r.Participants {
		total += r.Participants[i].Seats()
	}
	return total
}

// AvailableSeats is capacity minus booked seats. It can be negative for
// legacy data and is never clamped.
func (r *Ride) AvailableSeats() int {
	return r.VehicleCapacity - r.SeatsBooked()
}

// IsOffered reports whether the ride is a driver offer.
func (r *Ride) IsOffered() bool {
	return strings.EqualFold(string(r.Type), string(TypeOffered))
}

// IsFemaleOnly reports whether only female employees may join.
func (r *Ride) IsFemaleOnly() bool {
	return strings.EqualFold(r.GenderPreference, GenderFemaleOnly)
}

// IsRequester reports whether email belongs to the ride's driver.
func (r *Ride) IsRequester(email string) bool {
	return r.Requester.HasEmail(email)
}

// HasParticipant reports whether the employee already holds a booking.
func (r *Ride) HasParticipant(employeeID uuid.UUID) bool {
	for i := range r.Participants {
		if r.Participants[i].Employee.ID == employeeID {
			return true
		}
	}
	return false
}

// ParticipantByEmail finds a booking by participant email, case-insensitively.
func (r *Ride) ParticipantByEmail(email string) (*Participant, bool) {
	for i := range r.Participants {
		if r.Participants[i].Employee.HasEmail(email) {
			return &r.Participants[i], true
		}
	}
	return nil, false
}

// StopPoints returns the stopover addresses in order.
func (r *Ride) StopPoints() []string {
	points := make([]string, 0, len(r.Stopovers))
	for _, s := range r.Stopovers {
		points = append(points, s.Point)
	}
	return points
}

// Members returns the driver followed by every participant.
func (r *Ride) Members() []employee.Employee {
	members := make([]employee.Employee, 0, len(r.Participants)+1)
	members = append(members, r.Requester)
	for _, p := range r.Participants {
		members = append(members, p.Employee)
	}
	return members
}
