package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/repository/postgres"
	"github.com/homeride/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	tx := testutil.NewTx(t)
	repo := postgres.NewNotificationRepository(tx)
	ctx := context.Background()

	user := newEmployee(t, tx, "meera", employee.GenderFemale)
	rideID := uuid.New()

	chat := &notification.Notification{
		UserID:  user.ID,
		Message: "You have a new message in the chat for your ride from Chennai to Bangalore",
		Link:    "/ride/" + rideID.String(),
		Type:    notification.TypeChatMessage,
		RideID:  &rideID,
	}
	require.NoError(t, repo.Create(ctx, chat))
	require.NoError(t, repo.Create(ctx, &notification.Notification{
		UserID: user.ID, Message: "You offered a ride", Type: notification.TypeRideOffered,
	}))

	found, err := repo.FindUnread(ctx, user.ID, rideID, notification.TypeChatMessage)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, found.ID)
	require.NotNil(t, found.RideID)
	assert.Equal(t, rideID, *found.RideID)

	_, err = repo.FindUnread(ctx, user.ID, uuid.New(), notification.TypeChatMessage)
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)

	later := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Touch(ctx, chat.ID, later))

	unread, err := repo.ListUnread(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, chat.ID, unread[0].ID, "touched notification sorts first")

	require.NoError(t, repo.MarkRead(ctx, chat.ID, user.ID))
	assert.ErrorIs(t, repo.MarkRead(ctx, chat.ID, uuid.New()), notification.ErrNotificationNotFound)

	_, err = repo.FindUnread(ctx, user.ID, rideID, notification.TypeChatMessage)
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)

	n, err := repo.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, err = repo.ListUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
