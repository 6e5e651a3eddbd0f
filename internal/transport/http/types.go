package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type AuthorItem struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	AvatarBase64 *string `json:"avatarBase64"`
}

type MessageItem struct {
	ID     int64      `json:"id"`
	Body   string     `json:"body"`
	SentAt time.Time  `json:"sentAt"`
	Author AuthorItem `json:"author"`
}

type MessagesResponse struct {
	Messages   []MessageItem `json:"messages"`
	NextCursor *int64        `json:"nextCursor"`
}

type PostMessageRequest struct {
	Body string `json:"body"`
}

type LookupRequest struct {
	SecretKey string `json:"secretKey"`
}

type ProfileUpdateRequest struct {
	DisplayName  string  `json:"displayName"`
	AvatarBase64 *string `json:"avatarBase64"`
}

type UserResponse struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	AvatarBase64 *string `json:"avatarBase64"`
	SecretKey    string  `json:"secretKey"`
}
