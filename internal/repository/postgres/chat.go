package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/chat"
	"github.com/homeride/backend/pkg/database"
)

// ChatRepository implements chat.Repository
type ChatRepository struct {
	db database.DBTX
}

func NewChatRepository(db database.DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, m *chat.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	const q = `
		INSERT INTO chat_messages (id, ride_id, sender_email, sender_name, sender_profile_picture_url,
		                           recipient_email, type, content, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, q, m.ID, m.RideID, m.SenderEmail, m.SenderName, m.SenderProfilePictureURL,
		m.RecipientEmail, m.Type, m.Content, m.Timestamp)
	if err != nil {
		return fmt.Errorf("postgres.ChatRepository.Create: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*chat.Message, error) {
	const q = `
		SELECT id, ride_id, sender_email, sender_name, sender_profile_picture_url,
		       recipient_email, type, content, timestamp
		FROM chat_messages
		WHERE ride_id = $1
		ORDER BY timestamp, id`

	rows, err := r.db.QueryContext(ctx, q, rideID)
	if err != nil {
		return nil, fmt.Errorf("postgres.ChatRepository.ListByRide: %w", err)
	}
	defer rows.Close()

	var out []*chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.RideID, &m.SenderEmail, &m.SenderName, &m.SenderProfilePictureURL,
			&m.RecipientEmail, &m.Type, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres.ChatRepository.ListByRide: scan: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.ChatRepository.ListByRide: rows: %w", err)
	}
	return out, nil
}
