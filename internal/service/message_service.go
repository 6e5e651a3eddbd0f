package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hearthchat/chat-service/internal/domain"
)

const (
	maxBodyLength = 1000

	DefaultPageLimit = 20
	maxPageLimit     = 50
)

type MessageStore interface {
	Insert(ctx context.Context, authorID, body string) (*domain.Message, error)
	SelectPage(ctx context.Context, beforeID *int64, limit int) ([]domain.Message, error)
}

type MessageService struct {
	messages MessageStore
}

func NewMessageService(messages MessageStore) *MessageService {
	return &MessageService{messages: messages}
}

// Append validates and persists a message. It does not broadcast anything;
// fan-out is the caller's responsibility after a successful append.
func (s *MessageService) Append(ctx context.Context, author domain.Participant, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		return nil, domain.ErrBodyTooLong
	}

	msg, err := s.messages.Insert(ctx, author.ID, body)
	if err != nil {
		return nil, err
	}
	msg.Author = author
	return msg, nil
}

// Page returns up to limit messages older than beforeID, oldest first, and
// the cursor for the next (older) page. The store is asked for one extra row
// to detect whether more history exists; nextCursor is the id of the oldest
// message actually included, nil when history is exhausted.
func (s *MessageService) Page(ctx context.Context, beforeID *int64, limit int) ([]domain.Message, *int64, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	rows, err := s.messages.SelectPage(ctx, beforeID, limit+1)
	if err != nil {
		return nil, nil, err
	}

	var nextCursor *int64
	if len(rows) > limit {
		rows = rows[:limit]
		oldest := rows[len(rows)-1].ID
		nextCursor = &oldest
	}

	// rows are newest-first; the wire contract is oldest-first
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nextCursor, nil
}
