package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/pkg/database"
)

const notificationColumns = `id, user_id, message, link, type, ride_id, is_read, created_at`

// NotificationRepository implements notification.Repository
type NotificationRepository struct {
	db database.DBTX
}

func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	const q = `
		INSERT INTO notifications (id, user_id, message, link, type, ride_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, q, n.ID, n.UserID, n.Message, n.Link, n.Type, nullUUID(n.RideID), n.IsRead).
		Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres.NotificationRepository.Create: %w", err)
	}
	return nil
}

func (r *NotificationRepository) FindUnread(ctx context.Context, userID, rideID uuid.UUID, t notification.Type) (*notification.Notification, error) {
	q := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND ride_id = $2 AND type = $3 AND NOT is_read
		ORDER BY created_at DESC
		LIMIT 1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, q, userID, rideID, t))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notification.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.NotificationRepository.FindUnread: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET created_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("postgres.NotificationRepository.Touch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) ListUnread(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	q := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND NOT is_read
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres.NotificationRepository.ListUnread: %w", err)
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.NotificationRepository.ListUnread: scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.NotificationRepository.ListUnread: rows: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("postgres.NotificationRepository.MarkRead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres.NotificationRepository.MarkAllRead: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var (
		n      notification.Notification
		rideID uuid.NullUUID
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.Link, &n.Type, &rideID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	if rideID.Valid {
		id := rideID.UUID
		n.RideID = &id
	}
	return &n, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
