package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

var postColumns = []string{
	"title", "price", "images", "address", "city", "bedroom", "bathroom",
	"latitude", "longitude", "type", "property",
}

var detailColumns = []string{
	"description", "utilities", "pet", "income", "size", "school", "bus", "restaurant",
}

func (s *SQLStore) ListPosts(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{})
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Property != "" {
		q = q.Where("property = ?", f.Property)
	}
	if f.Bedroom > 0 {
		q = q.Where("bedroom = ?", f.Bedroom)
	}
	if f.Bathroom > 0 {
		q = q.Where("bathroom = ?", f.Bathroom)
	}
	if f.MinPrice > 0 {
		q = q.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price <= ?", f.MaxPrice)
	}

	posts := []models.Post{}
	if err := q.Order("id DESC").Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

// GetPost loads the post with its detail and the owner's public fields.
func (s *SQLStore) GetPost(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("PostDetail").
		Preload("User", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "username", "avatar")
		}).
		First(&post, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// CreatePost inserts the post and its detail atomically. A nil detail is
// stored as an empty one so every post has exactly one.
func (s *SQLStore) CreatePost(ctx context.Context, post *models.Post) error {
	detail := post.PostDetail
	if detail == nil {
		detail = &models.PostDetail{}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		detail.PostID = post.ID
		return tx.Create(detail).Error
	})
	if err != nil {
		return translate(err)
	}
	post.PostDetail = detail
	return nil
}

// UpdatePost rewrites the listing fields and the detail of post.ID.
func (s *SQLStore) UpdatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{ID: post.ID}).Select(postColumns).Omit(clause.Associations).Updates(post)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}

		if post.PostDetail == nil {
			return nil
		}
		detail := *post.PostDetail
		detail.PostID = post.ID
		res = tx.Model(&models.PostDetail{}).Where("post_id = ?", post.ID).Select(detailColumns).Updates(&detail)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			detail.ID = 0
			return tx.Create(&detail).Error
		}
		return nil
	})
}

// DeletePost removes the post, its detail and every bookmark of it.
func (s *SQLStore) DeletePost(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.SavedPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *SQLStore) ListUserPosts(ctx context.Context, userID int) ([]models.Post, error) {
	posts := []models.Post{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (s *SQLStore) IsPostSaved(ctx context.Context, userID, postID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SavedPost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, translate(err)
}

// ToggleSavedPost flips the bookmark and returns the resulting state.
func (s *SQLStore) ToggleSavedPost(ctx context.Context, userID, postID int) (bool, error) {
	var saved bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Post{}, postID).Error; err != nil {
			return translate(err)
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			saved = false
			return nil
		}

		saved = true
		return tx.Create(&models.SavedPost{UserID: userID, PostID: postID}).Error
	})
	err = translate(err)
	if errors.Is(err, store.ErrDuplicate) {
		// A concurrent toggle inserted the same row; it is saved either way.
		return true, nil
	}
	return saved, err
}

func (s *SQLStore) ListSavedPosts(ctx context.Context, userID int) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Joins("JOIN saved_posts ON saved_posts.post_id = posts.id").
		Where("saved_posts.user_id = ?", userID).
		Order("saved_posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, translate(err)
	}
	for i := range posts {
		posts[i].IsSaved = true
	}
	return posts, nil
}
