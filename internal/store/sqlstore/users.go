package sqlstore

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ListUsers returns every user with a masked email.
func (s *SQLStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	for i := range users {
		users[i].Email = maskEmail(users[i].Email)
	}
	return users, nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, id int, upd models.UserUpdate) (*models.User, error) {
	fields := map[string]interface{}{}
	if upd.Username != nil {
		fields["username"] = *upd.Username
	}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}
	if upd.Password != nil {
		fields["password"] = *upd.Password
	}
	if upd.Avatar != nil {
		fields["avatar"] = *upd.Avatar
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, store.ErrNotFound
		}
	}
	return s.GetUserByID(ctx, id)
}

// DeleteUser removes the user together with their listings, bookmarks and
// conversations.
func (s *SQLStore) DeleteUser(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, id).Error; err != nil {
			return translate(err)
		}

		var postIDs []int
		if err := tx.Model(&models.Post{}).Where("user_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.SavedPost{}).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.SavedPost{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostDetail{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		var chatIDs []int
		if err := tx.Model(&models.ChatParticipant{}).Where("user_id = ?", id).Pluck("chat_id", &chatIDs).Error; err != nil {
			return err
		}
		if len(chatIDs) > 0 {
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&models.ChatParticipant{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", chatIDs).Delete(&models.Chat{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, id).Error
	})
}

func maskEmail(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local, domain := parts[0], parts[1]
	length := len(local)
	visible := 1
	if length > 2 {
		visible = length / 2
		if visible > 3 {
			visible = 3
		}
	}
	if visible > length {
		visible = length
	}

	return local[:visible] + strings.Repeat("*", length-visible) + "@" + domain
}
