package handlers

import (
	"errors"
	"net/http"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/middleware"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
	"github.com/pliu/estate/internal/ws"
)

type CreateChatRequest struct {
	ReceiverID int `json:"receiverId" validate:"required,gt=0"`
}

type ChatHandler struct {
	Store store.Store
	Hub   *ws.Hub
}

// participantChat loads a chat the requester belongs to: 404 when it does
// not exist, 403 when the requester is not one of its two users.
func participantChat(r *http.Request, s store.Store, chatID int) (*models.Chat, error) {
	chat, err := s.GetChat(r.Context(), chatID)
	if err != nil {
		return nil, storeError(err, "Chat not found")
	}
	if !chat.HasParticipant(middleware.UserID(r.Context())) {
		return nil, apierr.Forbidden("Not a participant of this chat")
	}
	return chat, nil
}

// requireParticipant is participantChat for callers that do not need the
// messages.
func requireParticipant(r *http.Request, s store.Store, chatID int) error {
	ok, err := s.IsParticipant(r.Context(), chatID, middleware.UserID(r.Context()))
	if err != nil {
		return apierr.Internal(err)
	}
	if ok {
		return nil
	}
	if _, err := s.ChatParticipantIDs(r.Context(), chatID); err != nil {
		return storeError(err, "Chat not found")
	}
	return apierr.Forbidden("Not a participant of this chat")
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	withUserID, err := queryInt(r, "userId")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	chats, err := h.Store.ListUserChats(r.Context(), middleware.UserID(r.Context()), withUserID)
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, chats)
}

// Get returns the chat with its messages and marks it read for the requester.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	userID := middleware.UserID(r.Context())
	chat, err := participantChat(r, h.Store, chatID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.Store.MarkChatSeen(r.Context(), chat.ID, userID); err != nil {
		httputil.WriteError(w, r, storeError(err, "Chat not found"))
		return
	}
	chat.SeenBy = markSeen(chat.SeenBy, userID)

	for _, id := range chat.UserIDs {
		if id == userID {
			continue
		}
		receiver, err := h.Store.GetUserByID(r.Context(), id)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logging.Ctx(r.Context()).Warn().Err(err).Int("chat_id", chat.ID).Msg("Failed to load chat receiver")
			}
			continue
		}
		receiver.Email = ""
		chat.Receiver = receiver
	}
	httputil.WriteJSON(w, http.StatusOK, chat)
}

func markSeen(seenBy []int, userID int) []int {
	for _, id := range seenBy {
		if id == userID {
			return seenBy
		}
	}
	return append(seenBy, userID)
}

// Create finds or starts the chat between the requester and receiverId.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req CreateChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	if req.ReceiverID == userID {
		httputil.WriteError(w, r, apierr.Validation("Cannot start a chat with yourself"))
		return
	}

	if _, err := h.Store.GetUserByID(r.Context(), req.ReceiverID); err != nil {
		httputil.WriteError(w, r, storeError(err, "Receiver not found"))
		return
	}

	chat, created, err := h.Store.FindOrCreateChat(r.Context(), userID, req.ReceiverID)
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.Hub.Notify([]int{req.ReceiverID}, ws.Event{Type: ws.EventChat, Data: chat})
	}
	httputil.WriteJSON(w, status, chat)
}

func (h *ChatHandler) Read(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := requireParticipant(r, h.Store, chatID); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.Store.MarkChatSeen(r.Context(), chatID, middleware.UserID(r.Context())); err != nil {
		httputil.WriteError(w, r, storeError(err, "Chat not found"))
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Chat marked as read")
}
