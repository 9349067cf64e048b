package models

import (
	"time"
)

type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID    uint      `gorm:"not null;index" json:"category_id"`
	Category      Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
	Tags          []string  `gorm:"serializer:json" json:"tags"` // 有序标签
	ViewCount     uint      `gorm:"not null;default:0" json:"view_count"`
	LikeCount     uint      `gorm:"not null;default:0" json:"like_count"`
	FavoriteCount uint      `gorm:"not null;default:0" json:"favorite_count"`
	IsPinned      bool      `gorm:"not null;default:false" json:"is_pinned"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"` // false 即逻辑删除
	IsDraft       bool      `gorm:"not null;default:false" json:"is_draft"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
