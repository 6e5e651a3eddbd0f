package service

import (
	"context"
	"errors"
	"strings"

	"github.com/hearthchat/chat-service/internal/domain"
)

const maxSecretKeyLength = 32

type UserStore interface {
	GetBySecretKey(ctx context.Context, secretKey string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id, displayName string, avatarBase64 *string) (*domain.User, error)
}

type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// Authenticate resolves an opaque credential to a user. Any miss is
// reported as ErrUnauthorized; the caller never learns why.
func (s *AuthService) Authenticate(ctx context.Context, secretKey string) (*domain.User, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.GetBySecretKey(ctx, secretKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

// Lookup validates a submitted secret key and returns the matching profile.
// Unlike Authenticate, a miss surfaces as ErrUserNotFound so the login gate
// can distinguish a bad key from a malformed one.
func (s *AuthService) Lookup(ctx context.Context, secretKey string) (*domain.User, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" || len(secretKey) > maxSecretKeyLength {
		return nil, domain.ErrInvalidSecretKey
	}
	return s.users.GetBySecretKey(ctx, secretKey)
}
