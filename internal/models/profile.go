package models

import (
	"time"
)

// UserProfile 用户扩展资料，与 User 一对一
type UserProfile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Avatar       string    `json:"avatar"` // 存储引用（本地路径或 URL），可为空
	Bio          string    `gorm:"type:text" json:"bio"`
	Location     string    `gorm:"size:100" json:"location"`
	JoinDate     time.Time `gorm:"autoCreateTime" json:"join_date"`
	PostCount    uint      `gorm:"not null;default:0" json:"post_count"`
	CommentCount uint      `gorm:"not null;default:0" json:"comment_count"`
}
