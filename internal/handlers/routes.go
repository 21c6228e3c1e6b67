package handlers

import (
	"github.com/gorilla/mux"

	"github.com/pliu/estate/internal/auth"
	"github.com/pliu/estate/internal/middleware"
	"github.com/pliu/estate/internal/store"
	"github.com/pliu/estate/internal/ws"
)

// Routes is the REST route table. The server mounts it behind its own
// middleware stack.
type Routes struct {
	Authn    *middleware.Authenticator
	Auth     *AuthHandler
	Posts    *PostHandler
	Users    *UserHandler
	Chats    *ChatHandler
	Messages *MessageHandler
	Health   *HealthHandler

	// AuthLimit, when set, throttles the /api/auth endpoints.
	AuthLimit mux.MiddlewareFunc
}

func NewRoutes(s store.Store, tokens *auth.Tokens, hub *ws.Hub, secureCookie bool) *Routes {
	return &Routes{
		Authn:    &middleware.Authenticator{Tokens: tokens, Users: s},
		Auth:     &AuthHandler{Store: s, Tokens: tokens, SecureCookie: secureCookie},
		Posts:    &PostHandler{Store: s},
		Users:    &UserHandler{Store: s, SecureCookie: secureCookie},
		Chats:    &ChatHandler{Store: s, Hub: hub},
		Messages: &MessageHandler{Store: s, Hub: hub},
		Health:   &HealthHandler{Store: s},
	}
}

// Mount registers /healthz and everything under /api on r.
func (rt *Routes) Mount(r *mux.Router) {
	r.HandleFunc("/healthz", rt.Health.Healthz).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	if rt.AuthLimit != nil {
		authRoutes.Use(rt.AuthLimit)
	}
	authRoutes.HandleFunc("/register", rt.Auth.Register).Methods("POST")
	authRoutes.HandleFunc("/login", rt.Auth.Login).Methods("POST")
	authRoutes.HandleFunc("/logout", rt.Auth.Logout).Methods("POST")

	public := api.NewRoute().Subrouter()
	public.Use(rt.Authn.Optional)
	public.HandleFunc("/posts", rt.Posts.List).Methods("GET")
	public.HandleFunc("/posts/{id:[0-9]+}", rt.Posts.Get).Methods("GET")

	private := api.NewRoute().Subrouter()
	private.Use(rt.Authn.Require)
	private.HandleFunc("/posts", rt.Posts.Create).Methods("POST")
	private.HandleFunc("/posts/{id:[0-9]+}", rt.Posts.Update).Methods("PUT")
	private.HandleFunc("/posts/{id:[0-9]+}", rt.Posts.Delete).Methods("DELETE")

	private.HandleFunc("/users", rt.Users.List).Methods("GET")
	private.HandleFunc("/users/save", rt.Users.SavePost).Methods("POST")
	private.HandleFunc("/users/profilePosts", rt.Users.ProfilePosts).Methods("GET")
	private.HandleFunc("/users/notification", rt.Users.Notifications).Methods("GET")
	private.HandleFunc("/users/{id:[0-9]+}", rt.Users.Get).Methods("GET")
	private.HandleFunc("/users/{id:[0-9]+}", rt.Users.Update).Methods("PUT")
	private.HandleFunc("/users/{id:[0-9]+}", rt.Users.Delete).Methods("DELETE")

	private.HandleFunc("/chats", rt.Chats.List).Methods("GET")
	private.HandleFunc("/chats", rt.Chats.Create).Methods("POST")
	private.HandleFunc("/chats/{id:[0-9]+}", rt.Chats.Get).Methods("GET")
	private.HandleFunc("/chats/read/{id:[0-9]+}", rt.Chats.Read).Methods("PUT")

	private.HandleFunc("/messages", rt.Messages.Create).Methods("POST")
	private.HandleFunc("/messages/{chatId:[0-9]+}", rt.Messages.Create).Methods("POST")
}
