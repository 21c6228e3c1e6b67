package store

import (
	"context"
	"errors"

	"github.com/pliu/estate/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error

	// Post operations
	ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	GetPost(ctx context.Context, id int) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id int) error
	ListUserPosts(ctx context.Context, userID int) ([]models.Post, error)

	// Saved posts
	IsPostSaved(ctx context.Context, userID, postID int) (bool, error)
	ToggleSavedPost(ctx context.Context, userID, postID int) (bool, error)
	ListSavedPosts(ctx context.Context, userID int) ([]models.Post, error)

	// Chat operations
	FindOrCreateChat(ctx context.Context, userID, otherUserID int) (*models.Chat, bool, error)
	GetChat(ctx context.Context, chatID int) (*models.Chat, error)
	ListUserChats(ctx context.Context, userID, withUserID int) ([]models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID int) (bool, error)
	ChatParticipantIDs(ctx context.Context, chatID int) ([]int, error)
	MarkChatSeen(ctx context.Context, chatID, userID int) error
	CountUnseenChats(ctx context.Context, userID int) (int64, error)
	AddMessage(ctx context.Context, chatID, senderID int, text string) (*models.Message, error)

	Ping(ctx context.Context) error
	Close() error
}
