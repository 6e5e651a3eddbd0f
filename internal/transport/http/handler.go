package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hearthchat/chat-service/internal/domain"
	"github.com/hearthchat/chat-service/internal/service"
	httpmw "github.com/hearthchat/chat-service/internal/transport/http/middleware"
	"github.com/hearthchat/chat-service/internal/transport/ws"
)

type Handler struct {
	authSvc *service.AuthService
	userSvc *service.UserService
	msgSvc  *service.MessageService
	hub     *ws.Hub
}

func NewHandler(auth *service.AuthService, user *service.UserService, msg *service.MessageService, hub *ws.Hub) *Handler {
	return &Handler{
		authSvc: auth,
		userSvc: user,
		msgSvc:  msg,
		hub:     hub,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	default:
		slog.Error("request failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func messageItem(m domain.Message) MessageItem {
	return MessageItem{
		ID:     m.ID,
		Body:   m.Body,
		SentAt: m.SentAt,
		Author: AuthorItem{
			ID:           m.Author.ID,
			DisplayName:  m.Author.DisplayName,
			AvatarBase64: m.Author.AvatarBase64,
		},
	}
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		AvatarBase64: u.AvatarBase64,
		SecretKey:    u.SecretKey,
	}
}

// GET /messages?cursor=&limit=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var cursor *int64
	if s := q.Get("cursor"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, domain.ErrInvalidCursor)
			return
		}
		cursor = &id
	}

	limit := service.DefaultPageLimit
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	msgs, next, err := h.msgSvc.Page(r.Context(), cursor, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := MessagesResponse{Messages: make([]MessageItem, 0, len(msgs)), NextCursor: next}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageItem(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /messages
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())
	if user == nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.msgSvc.Append(r.Context(), user.Participant(), req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	// persist-before-announce: the append returned, so every subscriber can
	// also retrieve this id via the feed
	item := messageItem(*msg)
	h.hub.Broadcast(ws.Event{Type: ws.EventMessageNew, Payload: item})

	writeJSON(w, http.StatusCreated, item)
}

// POST /users/lookup
func (h *Handler) LookupUser(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	user, err := h.authSvc.Lookup(r.Context(), req.SecretKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// PATCH /profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())
	if user == nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	updated, err := h.userSvc.UpdateProfile(r.Context(), user.ID, req.DisplayName, req.AvatarBase64)
	if err != nil {
		writeError(w, err)
		return
	}

	// propagate to every live connection of this participant, then announce
	h.hub.UpdateParticipant(updated.Participant())
	h.hub.Broadcast(ws.Event{
		Type: ws.EventUserUpdated,
		Payload: ws.UserUpdatedPayload{
			ID:           updated.ID,
			DisplayName:  updated.DisplayName,
			AvatarBase64: updated.AvatarBase64,
		},
	})

	writeJSON(w, http.StatusOK, userResponse(updated))
}
