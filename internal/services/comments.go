package services

import (
	"context"
	"strings"
	"tieba/internal/apperror"
	"tieba/internal/models"

	"gorm.io/gorm"
)

type CommentInput struct {
	Content  string `validate:"required"`
	ParentID *uint
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Get 读取有效评论
func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&comment).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

// Create 在有效帖子下发表评论。parent 可以是任意状态的评论，但必须属于同一帖子。
func (s *CommentService) Create(ctx context.Context, author *models.User, postID uint, in CommentInput) (*models.Comment, error) {
	if author == nil {
		return nil, apperror.ErrUnauthorized
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   author.ID,
		ParentID: in.ParentID,
		Content:  in.Content,
		IsActive: true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").Where("id = ? AND is_active = ?", postID, true).First(&post).Error; err != nil {
			return notFound(err)
		}
		if in.ParentID != nil {
			var parent models.Comment
			if err := tx.Select("id", "post_id").First(&parent, *in.ParentID).Error; err != nil {
				return notFound(err)
			}
			if parent.PostID != postID {
				return apperror.NewValidationError("parent_id", "parent comment belongs to another post")
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return adjustProfileCounter(tx, author.ID, "comment_count", 1)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete 逻辑删除评论，仅作者可操作。返回评论以便跳回所属帖子。
func (s *CommentService) Delete(ctx context.Context, user *models.User, id uint) (*models.Comment, error) {
	if user == nil {
		return nil, apperror.ErrUnauthorized
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != user.ID {
		return nil, apperror.ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(comment).UpdateColumn("is_active", false).Error; err != nil {
			return err
		}
		return adjustProfileCounter(tx, comment.UserID, "comment_count", -1)
	})
	if err != nil {
		return nil, err
	}
	comment.IsActive = false
	return comment, nil
}
