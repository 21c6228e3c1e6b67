package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/metrics"
	"github.com/pliu/estate/internal/middleware"
	"github.com/pliu/estate/internal/store"
	"github.com/pliu/estate/internal/ws"
)

// SendMessageRequest carries chatId in the body unless the route supplies it.
type SendMessageRequest struct {
	ChatID int    `json:"chatId" validate:"gte=0"`
	Text   string `json:"text"`
}

type MessageHandler struct {
	Store store.Store
	Hub   *ws.Hub
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	chatID := req.ChatID
	if _, ok := mux.Vars(r)["chatId"]; ok {
		id, err := pathID(r, "chatId")
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}
		chatID = id
	}
	if chatID == 0 {
		httputil.WriteError(w, r, apierr.Validation("chatId is required"))
		return
	}

	text := strings.TrimSpace(req.Text)
	switch {
	case text == "":
		httputil.WriteError(w, r, apierr.Validation("text is required"))
		return
	case len(text) > 5000:
		httputil.WriteError(w, r, apierr.Validation("text must be at most 5000 characters"))
		return
	}

	senderID := middleware.UserID(r.Context())
	if err := requireParticipant(r, h.Store, chatID); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	msg, err := h.Store.AddMessage(r.Context(), chatID, senderID, text)
	if err != nil {
		httputil.WriteError(w, r, storeError(err, "Chat not found"))
		return
	}
	metrics.MessagesSent.Inc()

	members, err := h.Store.ChatParticipantIDs(r.Context(), chatID)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int("chat_id", chatID).Msg("Message stored but not pushed")
	} else {
		h.Hub.Notify(members, ws.Event{Type: ws.EventMessage, Data: msg})
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}
