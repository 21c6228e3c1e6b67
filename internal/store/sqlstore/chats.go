package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

// pairKey identifies the unordered pair {a, b}.
func pairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func hydrateChat(c *models.Chat) {
	c.UserIDs = make([]int, 0, len(c.Participants))
	c.SeenBy = []int{}
	for _, p := range c.Participants {
		c.UserIDs = append(c.UserIDs, p.UserID)
		if p.Seen {
			c.SeenBy = append(c.SeenBy, p.UserID)
		}
	}
}

// FindOrCreateChat returns the chat between the two users, creating it when
// none exists. The bool reports whether a chat was created.
func (s *SQLStore) FindOrCreateChat(ctx context.Context, userID, otherUserID int) (*models.Chat, bool, error) {
	key := pairKey(userID, otherUserID)

	chat, err := s.chatByPairKey(ctx, key)
	if err == nil {
		return chat, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c := models.Chat{PairKey: key}
		if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
			return err
		}
		participants := []models.ChatParticipant{
			{ChatID: c.ID, UserID: userID},
			{ChatID: c.ID, UserID: otherUserID},
		}
		return tx.Create(&participants).Error
	})
	if err = translate(err); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race with the other participant.
			chat, err := s.chatByPairKey(ctx, key)
			return chat, false, err
		}
		return nil, false, err
	}

	chat, err = s.chatByPairKey(ctx, key)
	return chat, err == nil, err
}

func (s *SQLStore) chatByPairKey(ctx context.Context, key string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.WithContext(ctx).Preload("Participants").Where("pair_key = ?", key).First(&chat).Error; err != nil {
		return nil, translate(err)
	}
	hydrateChat(&chat)
	return &chat, nil
}

// GetChat loads a chat with its participants and messages in send order.
func (s *SQLStore) GetChat(ctx context.Context, chatID int) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		First(&chat, chatID).Error
	if err != nil {
		return nil, translate(err)
	}
	hydrateChat(&chat)
	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}
	return &chat, nil
}

// ListUserChats returns userID's chats, most recently active first, each
// with Receiver set to the other participant. A positive withUserID keeps
// only chats shared with that user.
func (s *SQLStore) ListUserChats(ctx context.Context, userID, withUserID int) ([]models.Chat, error) {
	q := s.db.WithContext(ctx).Model(&models.Chat{}).
		Joins("JOIN chat_participants cp ON cp.chat_id = chats.id AND cp.user_id = ?", userID)
	if withUserID > 0 {
		q = q.Joins("JOIN chat_participants op ON op.chat_id = chats.id AND op.user_id = ?", withUserID)
	}

	chats := []models.Chat{}
	if err := q.Preload("Participants").Order("chats.updated_at DESC, chats.id DESC").Find(&chats).Error; err != nil {
		return nil, translate(err)
	}

	receiverIDs := make([]int, 0, len(chats))
	for i := range chats {
		hydrateChat(&chats[i])
		for _, id := range chats[i].UserIDs {
			if id != userID {
				receiverIDs = append(receiverIDs, id)
			}
		}
	}
	if len(receiverIDs) == 0 {
		return chats, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "username", "avatar").Where("id IN ?", receiverIDs).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	byID := make(map[int]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i := range chats {
		for _, id := range chats[i].UserIDs {
			if id != userID {
				chats[i].Receiver = byID[id]
			}
		}
	}
	return chats, nil
}

func (s *SQLStore) IsParticipant(ctx context.Context, chatID, userID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

// ChatParticipantIDs lists the chat's members without loading its messages.
func (s *SQLStore) ChatParticipantIDs(ctx context.Context, chatID int) ([]int, error) {
	var ids []int
	err := s.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(ids) == 0 {
		return nil, store.ErrNotFound
	}
	return ids, nil
}

// MarkChatSeen adds userID to the chat's seenBy set.
func (s *SQLStore) MarkChatSeen(ctx context.Context, chatID, userID int) error {
	res := s.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Update("seen", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) CountUnseenChats(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Count(&count).Error
	return count, translate(err)
}

// AddMessage stores a message, snapshots it as the chat's last message and
// resets seenBy to the sender alone.
func (s *SQLStore) AddMessage(ctx context.Context, chatID, senderID int, text string) (*models.Message, error) {
	msg := &models.Message{ChatID: chatID, UserID: senderID, Text: text}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.Select("id").First(&chat, chatID).Error; err != nil {
			return err
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		if err := tx.Model(&chat).Update("last_message", text).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ChatParticipant{}).Where("chat_id = ? AND user_id <> ?", chatID, senderID).Update("seen", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatParticipant{}).Where("chat_id = ? AND user_id = ?", chatID, senderID).Update("seen", true).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return msg, nil
}
