package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/pliu/estate/internal/auth"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store/sqlstore"
)

type testEnv struct {
	store  *sqlstore.SQLStore
	tokens *auth.Tokens
	router *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	tokens := auth.NewTokens("handlers-test-secret", time.Hour)
	r := mux.NewRouter()
	NewRoutes(s, tokens, nil, false).Mount(r)

	return &testEnv{store: s, tokens: tokens, router: r}
}

// do sends a request as userID (0 for anonymous). body may be a string of
// raw JSON or any value to be marshalled.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, userID int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, _, err := e.tokens.Issue(userID)
		if err != nil {
			t.Fatal(err)
		}
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	hashed, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatal(err)
	}
	u := &models.User{Username: username, Email: username + "@example.com", Password: hashed}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (e *testEnv) post(t *testing.T, ownerID int) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:      "Sunny flat",
		Price:      1200,
		Images:     []string{},
		Address:    "1 Main St",
		City:       "London",
		Bedroom:    2,
		Bathroom:   1,
		Type:       models.ListingRent,
		Property:   models.PropertyApartment,
		UserID:     ownerID,
		PostDetail: &models.PostDetail{Desc: "Nice"},
	}
	if err := e.store.CreatePost(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("handler returned wrong status code: got %v want %v (body %s)", rr.Code, want, rr.Body.String())
	}
}

func messageOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rr, &body)
	return body.Message
}
