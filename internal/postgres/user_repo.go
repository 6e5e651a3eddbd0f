package postgres

import (
	"context"
	"errors"

	"github.com/hearthchat/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, display_name, secret_key, avatar_base64)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.DisplayName, u.SecretKey, u.AvatarBase64)
	return err
}

func (r *UserRepository) GetBySecretKey(ctx context.Context, secretKey string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		SELECT id, display_name, secret_key, avatar_base64
		FROM users
		WHERE secret_key = $1
	`, secretKey).Scan(&u.ID, &u.DisplayName, &u.SecretKey, &u.AvatarBase64)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		SELECT id, display_name, secret_key, avatar_base64
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.DisplayName, &u.SecretKey, &u.AvatarBase64)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile rewrites display_name and, when avatar is non-nil, the avatar.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, displayName string, avatarBase64 *string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET display_name = $2,
		    avatar_base64 = COALESCE($3, avatar_base64)
		WHERE id = $1
		RETURNING id, display_name, secret_key, avatar_base64
	`, id, displayName, avatarBase64).Scan(&u.ID, &u.DisplayName, &u.SecretKey, &u.AvatarBase64)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
