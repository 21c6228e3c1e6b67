package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/pliu/estate/internal/models"
)

type saveResponse struct {
	Saved   bool   `json:"saved"`
	Message string `json:"message"`
}

func TestSavePostToggle(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.user(t, "u1")
	u2 := env.user(t, "u2")
	p := env.post(t, u1.ID)

	body := map[string]int{"postId": p.ID}

	rr := env.do(t, "POST", "/api/users/save", body, u2.ID)
	expectStatus(t, rr, http.StatusOK)
	var first saveResponse
	decode(t, rr, &first)
	if !first.Saved {
		t.Error("Expected first save to return saved=true")
	}

	rr = env.do(t, "POST", "/api/users/save", body, u2.ID)
	expectStatus(t, rr, http.StatusOK)
	var second saveResponse
	decode(t, rr, &second)
	if second.Saved {
		t.Error("Expected second save to return saved=false")
	}

	expectStatus(t, env.do(t, "POST", "/api/users/save", map[string]int{"postId": 9999}, u2.ID), http.StatusNotFound)
	expectStatus(t, env.do(t, "POST", "/api/users/save", map[string]int{}, u2.ID), http.StatusBadRequest)
}

func TestProfilePosts(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.user(t, "u1")
	u2 := env.user(t, "u2")
	own := env.post(t, u1.ID)
	theirs := env.post(t, u2.ID)

	if _, err := env.store.ToggleSavedPost(context.Background(), u1.ID, theirs.ID); err != nil {
		t.Fatal(err)
	}

	rr := env.do(t, "GET", "/api/users/profilePosts", nil, u1.ID)
	expectStatus(t, rr, http.StatusOK)

	var body struct {
		UserPosts  []models.Post `json:"userPosts"`
		SavedPosts []models.Post `json:"savedPosts"`
	}
	decode(t, rr, &body)
	if len(body.UserPosts) != 1 || body.UserPosts[0].ID != own.ID {
		t.Errorf("Unexpected userPosts: %+v", body.UserPosts)
	}
	if len(body.SavedPosts) != 1 || body.SavedPosts[0].ID != theirs.ID {
		t.Errorf("Unexpected savedPosts: %+v", body.SavedPosts)
	}
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	path := fmt.Sprintf("/api/users/%d", alice.ID)

	expectStatus(t, env.do(t, "PUT", path, map[string]string{"avatar": "x.png"}, bob.ID), http.StatusForbidden)
	expectStatus(t, env.do(t, "PUT", path, map[string]string{"username": "bob"}, alice.ID), http.StatusBadRequest)
	expectStatus(t, env.do(t, "PUT", path, map[string]string{"email": "nope"}, alice.ID), http.StatusBadRequest)

	rr := env.do(t, "PUT", path, map[string]string{"username": "alicia", "password": "new-password"}, alice.ID)
	expectStatus(t, rr, http.StatusOK)
	var updated models.User
	decode(t, rr, &updated)
	if updated.Username != "alicia" {
		t.Errorf("Expected username alicia, got %q", updated.Username)
	}

	// The new password works for login.
	rr = env.do(t, "POST", "/api/auth/login", Credentials{Username: "alicia", Password: "new-password"}, 0)
	expectStatus(t, rr, http.StatusOK)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	p := env.post(t, alice.ID)
	if _, err := env.store.ToggleSavedPost(ctx, bob.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.store.FindOrCreateChat(ctx, alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}

	path := fmt.Sprintf("/api/users/%d", alice.ID)
	expectStatus(t, env.do(t, "DELETE", path, nil, bob.ID), http.StatusForbidden)
	expectStatus(t, env.do(t, "DELETE", path, nil, alice.ID), http.StatusOK)

	expectStatus(t, env.do(t, "GET", path, nil, bob.ID), http.StatusNotFound)
	expectStatus(t, env.do(t, "GET", fmt.Sprintf("/api/posts/%d", p.ID), nil, 0), http.StatusNotFound)

	chats, err := env.store.ListUserChats(ctx, bob.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 0 {
		t.Errorf("Expected bob's chat with alice to be gone, got %d", len(chats))
	}
}

func TestDeletedUserSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	expectStatus(t, env.do(t, "DELETE", fmt.Sprintf("/api/users/%d", alice.ID), nil, alice.ID), http.StatusOK)

	rr := env.do(t, "POST", "/api/posts", validPostBody(), alice.ID)
	expectStatus(t, rr, http.StatusUnauthorized)
	if msg := messageOf(t, rr); msg != "User no longer exists" {
		t.Errorf("Unexpected message %q", msg)
	}
	expectStatus(t, env.do(t, "POST", "/api/chats", map[string]int{"receiverId": bob.ID}, alice.ID), http.StatusUnauthorized)
	expectStatus(t, env.do(t, "POST", "/api/users/save", map[string]int{"postId": 1}, alice.ID), http.StatusUnauthorized)

	// Public routes fall back to anonymous.
	expectStatus(t, env.do(t, "GET", "/api/posts", nil, alice.ID), http.StatusOK)
}

func TestGetUserHidesOthersEmail(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	var got models.User
	rr := env.do(t, "GET", fmt.Sprintf("/api/users/%d", alice.ID), nil, bob.ID)
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &got)
	if got.Username != "alice" || got.Email != "" {
		t.Errorf("Expected alice without email, got %+v", got)
	}

	got = models.User{}
	rr = env.do(t, "GET", fmt.Sprintf("/api/users/%d", alice.ID), nil, alice.ID)
	expectStatus(t, rr, http.StatusOK)
	decode(t, rr, &got)
	if got.Email != alice.Email {
		t.Errorf("Expected own email %q, got %q", alice.Email, got.Email)
	}
}

func TestListUsersMasksEmail(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	rr := env.do(t, "GET", "/api/users", nil, alice.ID)
	expectStatus(t, rr, http.StatusOK)
	var users []models.User
	decode(t, rr, &users)
	if len(users) != 1 {
		t.Fatalf("Expected 1 user, got %d", len(users))
	}
	if users[0].Email == alice.Email {
		t.Errorf("Expected masked email, got %q", users[0].Email)
	}
}

func TestNotificationCount(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	chat, _, err := env.store.FindOrCreateChat(context.Background(), alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	rr := env.do(t, "POST", "/api/messages", map[string]interface{}{"chatId": chat.ID, "text": "hello"}, alice.ID)
	expectStatus(t, rr, http.StatusCreated)

	rr = env.do(t, "GET", "/api/users/notification", nil, bob.ID)
	expectStatus(t, rr, http.StatusOK)
	var n int
	decode(t, rr, &n)
	if n != 1 {
		t.Errorf("Expected 1 unseen chat for bob, got %d", n)
	}

	rr = env.do(t, "GET", "/api/users/notification", nil, alice.ID)
	decode(t, rr, &n)
	if n != 0 {
		t.Errorf("Expected 0 unseen chats for the sender, got %d", n)
	}
}
