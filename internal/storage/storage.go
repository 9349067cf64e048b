// Package storage 保存用户上传的图片（头像、帖子配图），返回可直接用于页面的引用
package storage

import (
	"context"
	"fmt"
	"io"
	"tieba/internal/config"
)

// Store 图片存储后端
type Store interface {
	// Save 保存 r 的内容，folder 为逻辑目录（如 "avatars"），返回本地路径或 URL
	Save(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// Delete 删除 Save 返回的引用，引用不属于本后端时忽略
	Delete(ctx context.Context, ref string) error
}

// New 根据 STORAGE_DRIVER 选择实现
func New(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "cloudinary":
		return NewCloudinaryStore(cfg.CloudinaryURL)
	case "local", "":
		return NewLocalStore(cfg.MediaDir, "/media")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
