package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/chat"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/testutil"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	mu         sync.Mutex
	broadcasts []string
	direct     []string
}

func (h *fakeHub) BroadcastToRide(rideID string, _ websocket.Message, _ string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, rideID)
	return 1
}

func (h *fakeHub) SendToUser(email string, _ websocket.Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.direct = append(h.direct, email)
	return 1
}

type fixture struct {
	svc      *Service
	hub      *fakeHub
	notifier *testutil.Notifier
	driver   *employee.Employee
	asha     *employee.Employee
	kumar    *employee.Employee
	outsider *employee.Employee
	ride     *ride.Ride
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		hub:      &fakeHub{},
		notifier: &testutil.Notifier{},
		driver:   testutil.Employee("Ravi", employee.GenderMale),
		asha:     testutil.Employee("Asha", employee.GenderFemale),
		kumar:    testutil.Employee("Kumar", employee.GenderMale),
		outsider: testutil.Employee("Meera", employee.GenderFemale),
	}

	rides := testutil.NewRides()
	f.ride = &ride.Ride{
		Requester:       *f.driver,
		OriginCity:      "Chennai",
		DestinationCity: "Bangalore",
		TravelDateTime:  time.Now().Add(24 * time.Hour),
		Type:            ride.TypeOffered,
		VehicleCapacity: 3,
		Participants: []ride.Participant{
			{ID: uuid.New(), Employee: *f.asha, NumberOfSeats: 1},
			{ID: uuid.New(), Employee: *f.kumar, NumberOfSeats: 1},
		},
	}
	require.NoError(t, rides.Create(context.Background(), f.ride))

	employees := testutil.NewEmployees(f.driver, f.asha, f.kumar, f.outsider)
	f.svc = NewService(testutil.NewMessages(), rides, employees, f.hub, f.notifier, nil)
	return f
}

func TestService_SendGroup(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.Send(context.Background(), "asha@corp.example", SendInput{RideID: f.ride.ID, Content: "  where is pickup?  "})
	require.NoError(t, err)

	assert.Equal(t, "where is pickup?", m.Content)
	assert.Equal(t, chat.TypeGroup, m.Type)
	assert.Equal(t, "Asha", m.SenderName)
	assert.Equal(t, []string{f.ride.ID.String()}, f.hub.broadcasts)

	sent := f.notifier.Sent()
	require.Len(t, sent, 2)
	for _, s := range sent {
		assert.NotEqual(t, f.asha.Email, s.To)
		assert.Equal(t, notification.TypeChatMessage, s.Type)
		assert.Equal(t, "You have a new message in the chat for your ride from Chennai to Bangalore", s.Message)
		assert.Equal(t, "/ride/"+f.ride.ID.String(), s.Link)
	}
}

func TestService_SendPrivate(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.Send(context.Background(), f.driver.Email, SendInput{
		RideID: f.ride.ID, Content: "call me", Type: "private", RecipientEmail: "KUMAR@corp.example",
	})
	require.NoError(t, err)

	assert.Equal(t, chat.TypePrivate, m.Type)
	assert.Equal(t, f.kumar.Email, m.RecipientEmail)
	assert.Empty(t, f.hub.broadcasts)
	assert.ElementsMatch(t, []string{f.kumar.Email, f.driver.Email}, f.hub.direct)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, f.kumar.Email, sent[0].To)

	// only the two ends of a private line see it in history
	forAsha, err := f.svc.History(context.Background(), f.asha.Email, f.ride.ID)
	require.NoError(t, err)
	assert.Empty(t, forAsha)

	forKumar, err := f.svc.History(context.Background(), f.kumar.Email, f.ride.ID)
	require.NoError(t, err)
	assert.Len(t, forKumar, 1)
}

func TestService_SendRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.asha.Email, SendInput{RideID: f.ride.ID, Content: "   "})
	assert.ErrorIs(t, err, apperrors.ErrEmptyMessage)

	_, err = f.svc.Send(ctx, f.asha.Email, SendInput{RideID: f.ride.ID, Content: strings.Repeat("x", MaxContentLength+1)})
	assert.True(t, apperrors.IsAppError(err))

	_, err = f.svc.Send(ctx, f.outsider.Email, SendInput{RideID: f.ride.ID, Content: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrNotRideMember)

	_, err = f.svc.Send(ctx, f.asha.Email, SendInput{RideID: uuid.New(), Content: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrRideNotFound)

	_, err = f.svc.Send(ctx, f.asha.Email, SendInput{RideID: f.ride.ID, Content: "hi", Type: chat.TypePrivate, RecipientEmail: f.outsider.Email})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).Status)

	assert.Empty(t, f.notifier.Sent())
}

func TestService_HistoryOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)

	for i, line := range []string{"morning", "leaving now", "reached"} {
		at := base.Add(time.Duration(i) * time.Minute)
		f.svc.now = func() time.Time { return at }
		_, err := f.svc.Send(ctx, f.driver.Email, SendInput{RideID: f.ride.ID, Content: line})
		require.NoError(t, err)
	}

	history, err := f.svc.History(ctx, f.asha.Email, f.ride.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "morning", history[0].Content)
	assert.Equal(t, "reached", history[2].Content)

	_, err = f.svc.History(ctx, f.outsider.Email, f.ride.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotRideMember)
}

func TestService_SocketAndAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, f.svc.CanAccess(ctx, f.asha.Email, f.ride.ID.String()))
	assert.False(t, f.svc.CanAccess(ctx, f.outsider.Email, f.ride.ID.String()))
	assert.False(t, f.svc.CanAccess(ctx, f.asha.Email, "not-a-uuid"))

	require.NoError(t, f.svc.HandleSocket(ctx, f.asha.Email, f.ride.ID.String(), "hello"))
	assert.Error(t, f.svc.HandleSocket(ctx, f.asha.Email, "bad", "hello"))
}
