package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/middleware"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

func TestCreateChatFindsExisting(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "a")
	b := env.user(t, "b")

	rr := env.do(t, "POST", "/api/chats", map[string]int{"receiverId": b.ID}, a.ID)
	expectStatus(t, rr, http.StatusCreated)
	var first models.Chat
	decode(t, rr, &first)

	rr = env.do(t, "POST", "/api/chats", map[string]int{"receiverId": b.ID}, a.ID)
	expectStatus(t, rr, http.StatusOK)
	var second models.Chat
	decode(t, rr, &second)

	rr = env.do(t, "POST", "/api/chats", map[string]int{"receiverId": a.ID}, b.ID)
	expectStatus(t, rr, http.StatusOK)
	var reversed models.Chat
	decode(t, rr, &reversed)

	if first.ID != second.ID || first.ID != reversed.ID {
		t.Errorf("Expected one chat, got ids %d, %d, %d", first.ID, second.ID, reversed.ID)
	}
	if len(first.UserIDs) != 2 {
		t.Errorf("Expected two participants, got %v", first.UserIDs)
	}
}

func TestCreateChatErrors(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "a")

	expectStatus(t, env.do(t, "POST", "/api/chats", map[string]int{"receiverId": a.ID}, a.ID), http.StatusBadRequest)
	expectStatus(t, env.do(t, "POST", "/api/chats", map[string]int{"receiverId": 9999}, a.ID), http.StatusNotFound)
	expectStatus(t, env.do(t, "POST", "/api/chats", map[string]int{}, a.ID), http.StatusBadRequest)
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "a")
	b := env.user(t, "b")
	outsider := env.user(t, "c")
	chat, _, err := env.store.FindOrCreateChat(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}

	body := map[string]interface{}{"chatId": chat.ID, "text": "  is it still available?  "}
	expectStatus(t, env.do(t, "POST", "/api/messages", body, outsider.ID), http.StatusForbidden)
	expectStatus(t, env.do(t, "POST", "/api/messages", map[string]interface{}{"chatId": 9999, "text": "hi"}, a.ID), http.StatusNotFound)
	expectStatus(t, env.do(t, "POST", "/api/messages", map[string]interface{}{"chatId": chat.ID, "text": "   "}, a.ID), http.StatusBadRequest)
	expectStatus(t, env.do(t, "POST", "/api/messages", map[string]interface{}{"text": "hi"}, a.ID), http.StatusBadRequest)

	rr := env.do(t, "POST", "/api/messages", body, b.ID)
	expectStatus(t, rr, http.StatusCreated)
	var msg models.Message
	decode(t, rr, &msg)
	if msg.Text != "is it still available?" || msg.UserID != b.ID || msg.ChatID != chat.ID {
		t.Errorf("Unexpected message: %+v", msg)
	}

	got, err := env.store.GetChat(context.Background(), chat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SeenBy) != 1 || got.SeenBy[0] != b.ID {
		t.Errorf("Expected seenBy [%d], got %v", b.ID, got.SeenBy)
	}
	if got.LastMessage == nil || *got.LastMessage != "is it still available?" {
		t.Errorf("Expected lastMessage to be updated, got %v", got.LastMessage)
	}

	// Path form of the same route.
	rr = env.do(t, "POST", fmt.Sprintf("/api/messages/%d", chat.ID), map[string]string{"text": "yes"}, a.ID)
	expectStatus(t, rr, http.StatusCreated)
}

func TestGetChatMarksSeen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	outsider := env.user(t, "c")
	chat, _, err := env.store.FindOrCreateChat(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.AddMessage(ctx, chat.ID, a.ID, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.AddMessage(ctx, chat.ID, a.ID, "second"); err != nil {
		t.Fatal(err)
	}

	path := fmt.Sprintf("/api/chats/%d", chat.ID)
	expectStatus(t, env.do(t, "GET", path, nil, outsider.ID), http.StatusForbidden)
	expectStatus(t, env.do(t, "GET", "/api/chats/9999", nil, a.ID), http.StatusNotFound)

	rr := env.do(t, "GET", path, nil, b.ID)
	expectStatus(t, rr, http.StatusOK)
	var got models.Chat
	decode(t, rr, &got)
	if len(got.Messages) != 2 || got.Messages[0].Text != "first" {
		t.Errorf("Expected messages in send order, got %+v", got.Messages)
	}
	if len(got.SeenBy) != 2 {
		t.Errorf("Expected both participants in seenBy, got %v", got.SeenBy)
	}
	if got.Receiver == nil || got.Receiver.ID != a.ID {
		t.Errorf("Expected receiver a, got %+v", got.Receiver)
	}

	n, err := env.store.CountUnseenChats(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Expected no unseen chats after reading, got %d", n)
	}
}

func TestReadChat(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "a")
	b := env.user(t, "b")
	outsider := env.user(t, "c")
	chat, _, err := env.store.FindOrCreateChat(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}

	path := fmt.Sprintf("/api/chats/read/%d", chat.ID)
	expectStatus(t, env.do(t, "PUT", path, nil, outsider.ID), http.StatusForbidden)
	expectStatus(t, env.do(t, "PUT", "/api/chats/read/9999", nil, a.ID), http.StatusNotFound)
	expectStatus(t, env.do(t, "PUT", path, nil, a.ID), http.StatusOK)
	expectStatus(t, env.do(t, "PUT", path, nil, a.ID), http.StatusOK)

	got, err := env.store.GetChat(context.Background(), chat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SeenBy) != 1 || got.SeenBy[0] != a.ID {
		t.Errorf("Expected seenBy [%d], got %v", a.ID, got.SeenBy)
	}
}

// brokenUsers fails every user lookup with a non-NotFound error.
type brokenUsers struct {
	store.Store
}

func (brokenUsers) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func TestGetChatLogsReceiverLookupFailure(t *testing.T) {
	env := newTestEnv(t)
	a := env.user(t, "a")
	b := env.user(t, "b")
	chat, _, err := env.store.FindOrCreateChat(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(zerolog.New(&logs))
	defer logging.SetLogger(prev)

	h := &ChatHandler{Store: brokenUsers{env.store}}
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/chats/%d", chat.ID), nil)
	req = mux.SetURLVars(req, map[string]string{"id": fmt.Sprint(chat.ID)})
	req = req.WithContext(middleware.WithUserID(req.Context(), a.ID))
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	expectStatus(t, rr, http.StatusOK)
	var got models.Chat
	decode(t, rr, &got)
	if got.Receiver != nil {
		t.Errorf("Expected no receiver, got %+v", got.Receiver)
	}
	if !strings.Contains(logs.String(), "Failed to load chat receiver") || !strings.Contains(logs.String(), "connection reset") {
		t.Errorf("Expected the lookup failure to be logged, got %q", logs.String())
	}
}

func TestListChats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	c := env.user(t, "c")
	for _, other := range []*models.User{b, c} {
		if _, _, err := env.store.FindOrCreateChat(ctx, a.ID, other.ID); err != nil {
			t.Fatal(err)
		}
	}

	rr := env.do(t, "GET", "/api/chats", nil, a.ID)
	expectStatus(t, rr, http.StatusOK)
	var chats []models.Chat
	decode(t, rr, &chats)
	if len(chats) != 2 {
		t.Fatalf("Expected 2 chats, got %d", len(chats))
	}

	rr = env.do(t, "GET", fmt.Sprintf("/api/chats?userId=%d", c.ID), nil, a.ID)
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &chats)
	if len(chats) != 1 || chats[0].Receiver == nil || chats[0].Receiver.ID != c.ID {
		t.Errorf("Expected only the chat with c, got %+v", chats)
	}

	expectStatus(t, env.do(t, "GET", "/api/chats?userId=abc", nil, a.ID), http.StatusBadRequest)
}
