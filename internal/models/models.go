package models

import "time"

type User struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email,omitempty" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserUpdate carries the optional fields of a profile update. Password must
// already be hashed.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	Avatar   *string
}

// Chat is a two-party conversation. Participants are persisted in
// chat_participants; UserIDs and SeenBy are derived from them on load.
type Chat struct {
	ID           int               `json:"id" gorm:"primaryKey"`
	PairKey      string            `json:"-" gorm:"uniqueIndex;not null"`
	LastMessage  *string           `json:"lastMessage"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Participants []ChatParticipant `json:"-" gorm:"foreignKey:ChatID"`
	Messages     []Message         `json:"messages,omitempty" gorm:"foreignKey:ChatID"`

	UserIDs  []int `json:"userIDs" gorm:"-"`
	SeenBy   []int `json:"seenBy" gorm:"-"`
	Receiver *User `json:"receiver,omitempty" gorm:"-"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID int) bool {
	for _, id := range c.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type ChatParticipant struct {
	ChatID int   `gorm:"primaryKey;autoIncrement:false"`
	UserID int   `gorm:"primaryKey;autoIncrement:false;index"`
	Seen   bool  `gorm:"not null;default:false"`
	User   *User `gorm:"foreignKey:UserID"`
}

type Message struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	ChatID    int       `json:"chatId" gorm:"index;not null"`
	UserID    int       `json:"userId" gorm:"not null"`
	Text      string    `json:"text" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}
