package postgres

import (
	"context"

	"github.com/hearthchat/chat-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert persists a message; the database assigns id and sent_at.
func (r *MessageRepository) Insert(ctx context.Context, authorID, body string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (body, user_id)
		VALUES ($1, $2)
		RETURNING id, body, sent_at
	`, body, authorID).Scan(&m.ID, &m.Body, &m.SentAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SelectPage returns up to limit messages with id < beforeID (or the newest
// limit when beforeID is nil), newest first, joined with the author profile.
func (r *MessageRepository) SelectPage(ctx context.Context, beforeID *int64, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.body, m.sent_at,
		       u.id, u.display_name, u.avatar_base64
		FROM messages AS m
		JOIN users AS u ON u.id = m.user_id
		WHERE $1::bigint IS NULL OR m.id < $1
		ORDER BY m.id DESC
		LIMIT $2
	`, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.Body, &m.SentAt,
			&m.Author.ID, &m.Author.DisplayName, &m.Author.AvatarBase64,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
