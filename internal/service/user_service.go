package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hearthchat/chat-service/internal/domain"
)

const (
	minDisplayNameLength = 2
	maxDisplayNameLength = 40
	maxAvatarBytes       = 500_000
)

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// UpdateProfile applies a profile change and returns the updated user.
// The avatar is optional; nil leaves the stored avatar untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id, displayName string, avatarBase64 *string) (*domain.User, error) {
	displayName = strings.TrimSpace(displayName)
	if n := utf8.RuneCountInString(displayName); n < minDisplayNameLength || n > maxDisplayNameLength {
		return nil, domain.ErrInvalidDisplayName
	}

	if avatarBase64 != nil {
		trimmed := strings.TrimSpace(*avatarBase64)
		if trimmed == "" {
			avatarBase64 = nil
		} else {
			if len(trimmed) > maxAvatarBytes {
				return nil, domain.ErrAvatarTooLarge
			}
			avatarBase64 = &trimmed
		}
	}

	return s.users.UpdateProfile(ctx, id, displayName, avatarBase64)
}
