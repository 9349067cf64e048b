package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrLikeTarget = errors.New("like must reference exactly one of post or comment")

// Like 点赞关系。PostID 与 CommentID 恰有一个非空。
// PG 的唯一索引允许多个 NULL，因此两个组合索引可以共存。
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_like_user_post;uniqueIndex:idx_like_user_comment" json:"user_id"`
	PostID    *uint     `gorm:"index;uniqueIndex:idx_like_user_post" json:"post_id"`
	Post      *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CommentID *uint     `gorm:"index;uniqueIndex:idx_like_user_comment" json:"comment_id"`
	Comment   *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if (l.PostID == nil) == (l.CommentID == nil) {
		return ErrLikeTarget
	}
	return nil
}
