package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/chat"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/rating"
	"github.com/homeride/backend/internal/domain/ride"
)

// Employees is an in-memory employee.Repository.
type Employees struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*employee.Employee
}

func NewEmployees(list ...*employee.Employee) *Employees {
	s := &Employees{byID: make(map[uuid.UUID]*employee.Employee)}
	for _, e := range list {
		s.Add(e)
	}
	return s
}

// Add stores e, assigning an ID when it has none.
func (s *Employees) Add(e *employee.Employee) *employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.byID[e.ID] = e
	return e
}

func (s *Employees) GetByID(_ context.Context, id uuid.UUID) (*employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *Employees) GetByEmail(_ context.Context, email string) (*employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.byID {
		if e.HasEmail(email) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

// List returns every employee ordered by name.
func (s *Employees) List(_ context.Context) ([]*employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*employee.Employee, 0, len(s.byID))
	for _, e := range s.byID {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Employees) Update(_ context.Context, e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[e.ID]; !ok {
		return employee.ErrEmployeeNotFound
	}
	cp := *e
	s.byID[e.ID] = &cp
	return nil
}

func (s *Employees) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

// Rides is an in-memory ride.Repository with the same seat and duplicate
// checks as the Postgres one.
type Rides struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*ride.Ride
	// Err, when set, is returned by every call.
	Err error
}

func NewRides() *Rides {
	return &Rides{rides: make(map[uuid.UUID]*ride.Ride)}
}

func (s *Rides) Create(_ context.Context, r *ride.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	for i := range r.Stopovers {
		if r.Stopovers[i].ID == uuid.Nil {
			r.Stopovers[i].ID = uuid.New()
		}
	}
	r.CreatedAt = time.Now()
	s.rides[r.ID] = cloneRide(r)
	return nil
}

func (s *Rides) GetByID(_ context.Context, id uuid.UUID) (*ride.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	r, ok := s.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	return cloneRide(r), nil
}

func (s *Rides) ListOfferedAfter(_ context.Context, t time.Time) ([]*ride.Ride, error) {
	return s.filter(func(r *ride.Ride) bool { return r.IsOffered() && r.TravelDateTime.After(t) })
}

func (s *Rides) ListForEmployee(_ context.Context, employeeID uuid.UUID) ([]*ride.Ride, error) {
	return s.filter(func(r *ride.Ride) bool {
		return r.Requester.ID == employeeID || r.HasParticipant(employeeID)
	})
}

func (s *Rides) AddParticipant(_ context.Context, p *ride.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r, ok := s.rides[p.RideID]
	if !ok {
		return ride.ErrRideNotFound
	}
	if r.AvailableSeats() < p.Seats() {
		return ride.ErrNotEnoughSeats
	}
	if r.HasParticipant(p.Employee.ID) {
		return ride.ErrAlreadyJoined
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.JoinedAt = time.Now()
	r.Participants = append(r.Participants, *p)
	return nil
}

func (s *Rides) RemoveParticipant(_ context.Context, rideID, participantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r, ok := s.rides[rideID]
	if !ok {
		return ride.ErrRideNotFound
	}
	for i := range r.Participants {
		if r.Participants[i].ID == participantID {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return nil
		}
	}
	return ride.ErrParticipantNotFound
}

func (s *Rides) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.rides[id]; !ok {
		return ride.ErrRideNotFound
	}
	delete(s.rides, id)
	return nil
}

func (s *Rides) Count(_ context.Context) (int, error) {
	list, err := s.filter(func(*ride.Ride) bool { return true })
	return len(list), err
}

// CountForEmployee counts rides the employee offered or requested plus the
// rides they joined.
func (s *Rides) CountForEmployee(_ context.Context, employeeID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	n := 0
	for _, r := range s.rides {
		if r.Requester.ID == employeeID {
			n++
		}
		if r.HasParticipant(employeeID) {
			n++
		}
	}
	return n, nil
}

func (s *Rides) filter(keep func(*ride.Ride) bool) ([]*ride.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*ride.Ride
	for _, r := range s.rides {
		if keep(r) {
			out = append(out, cloneRide(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TravelDateTime.Before(out[j].TravelDateTime) })
	return out, nil
}

func cloneRide(r *ride.Ride) *ride.Ride {
	cp := *r
	cp.Stopovers = append([]ride.Stopover(nil), r.Stopovers...)
	cp.StopoverPrices = append([]float64(nil), r.StopoverPrices...)
	cp.Participants = append([]ride.Participant(nil), r.Participants...)
	return &cp
}

// Notifications is an in-memory notification.Repository.
type Notifications struct {
	mu    sync.Mutex
	items []*notification.Notification
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (s *Notifications) Create(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.items = append(s.items, &cp)
	return nil
}

func (s *Notifications) FindUnread(_ context.Context, userID, rideID uuid.UUID, t notification.Type) (*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.items) - 1; i >= 0; i-- {
		n := s.items[i]
		if n.UserID == userID && n.Type == t && !n.IsRead && n.RideID != nil && *n.RideID == rideID {
			cp := *n
			return &cp, nil
		}
	}
	return nil, notification.ErrNotificationNotFound
}

func (s *Notifications) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.ID == id {
			n.CreatedAt = at
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func (s *Notifications) ListUnread(_ context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*notification.Notification
	for _, n := range s.items {
		if n.UserID == userID && !n.IsRead {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Notifications) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func (s *Notifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

// For returns every notification stored for userID, oldest first.
func (s *Notifications) For(userID uuid.UUID) []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notification.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

// Ratings is an in-memory rating.Repository.
type Ratings struct {
	mu    sync.Mutex
	items []*rating.Rating
}

func NewRatings() *Ratings {
	return &Ratings{}
}

func (s *Ratings) Create(_ context.Context, r *rating.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.RideID == r.RideID && existing.RaterID == r.RaterID && existing.RateeID == r.RateeID {
			return rating.ErrDuplicateRating
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	cp := *r
	s.items = append(s.items, &cp)
	return nil
}

func (s *Ratings) Exists(_ context.Context, rideID, raterID, rateeID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.RideID == rideID && r.RaterID == raterID && r.RateeID == rateeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Ratings) ListByRatee(_ context.Context, rateeID uuid.UUID) ([]*rating.Rating, error) {
	return s.filter(func(r *rating.Rating) bool { return r.RateeID == rateeID }), nil
}

func (s *Ratings) ListByRater(_ context.Context, raterID uuid.UUID) ([]*rating.Rating, error) {
	return s.filter(func(r *rating.Rating) bool { return r.RaterID == raterID }), nil
}

func (s *Ratings) Average(_ context.Context, rateeID uuid.UUID) (*float64, error) {
	list := s.filter(func(r *rating.Rating) bool { return r.RateeID == rateeID })
	if len(list) == 0 {
		return nil, nil
	}
	sum := 0
	for _, r := range list {
		sum += r.Score
	}
	avg := float64(sum) / float64(len(list))
	return &avg, nil
}

func (s *Ratings) DeleteByRide(_ context.Context, rideID uuid.UUID) error {
	s.remove(func(r *rating.Rating) bool { return r.RideID == rideID })
	return nil
}

func (s *Ratings) DeleteByRideAndEmployee(_ context.Context, rideID, employeeID uuid.UUID) error {
	s.remove(func(r *rating.Rating) bool {
		return r.RideID == rideID && (r.RaterID == employeeID || r.RateeID == employeeID)
	})
	return nil
}

// Len returns the number of stored ratings.
func (s *Ratings) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Ratings) filter(keep func(*rating.Rating) bool) []*rating.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*rating.Rating
	for _, r := range s.items {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (s *Ratings) remove(drop func(*rating.Rating) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, r := range s.items {
		if !drop(r) {
			kept = append(kept, r)
		}
	}
	s.items = kept
}

// Messages is an in-memory chat.Repository.
type Messages struct {
	mu    sync.Mutex
	items []*chat.Message
}

func NewMessages() *Messages {
	return &Messages{}
}

func (s *Messages) Create(_ context.Context, m *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	s.items = append(s.items, &cp)
	return nil
}

func (s *Messages) ListByRide(_ context.Context, rideID uuid.UUID) ([]*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*chat.Message
	for _, m := range s.items {
		if m.RideID == rideID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Employee builds a fixture employee with a predictable email.
func Employee(name, gender string) *employee.Employee {
	return &employee.Employee{
		ID:     uuid.New(),
		Name:   name,
		Email:  strings.ToLower(name) + "@corp.example",
		Gender: gender,
		Role:   employee.RoleEmployee,
	}
}
