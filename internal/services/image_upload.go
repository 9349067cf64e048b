package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"tieba/internal/apperror"
	"tieba/internal/storage"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize 上传图片大小上限
const MaxImageSize = 5 * 1024 * 1024

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageUploader 校验上传的图片并交给 storage.Store 保存
type ImageUploader struct {
	store storage.Store
}

func NewImageUploader(store storage.Store) *ImageUploader {
	return &ImageUploader{store: store}
}

// imageFileName 按文件内容判定类型，返回带正确扩展名的文件名。客户端声明的 Content-Type 不可信。
func imageFileName(header *multipart.FileHeader, content io.Reader) (string, error) {
	if header.Size > MaxImageSize {
		return "", apperror.NewValidationError("image", fmt.Sprintf("image must be at most %d MB", MaxImageSize/1024/1024))
	}
	mtype, err := mimetype.DetectReader(content)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	ext, ok := imageExts[mtype.String()]
	if !ok {
		return "", apperror.NewValidationError("image", "only jpg, png, gif or webp images are allowed")
	}

	name := filepath.Base(header.Filename)
	if e := strings.ToLower(filepath.Ext(name)); e == "" || e != ext && !(ext == ".jpg" && e == ".jpeg") {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ext
	}
	return name, nil
}

// Upload 保存 header 对应的文件到 folder，返回可用于页面的引用
func (u *ImageUploader) Upload(ctx context.Context, folder string, header *multipart.FileHeader) (string, error) {
	if u == nil || u.store == nil {
		return "", fmt.Errorf("image storage is not configured")
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	name, err := imageFileName(header, file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return u.store.Save(ctx, file, folder, name)
}

// Remove 删除旧图片，引用为空时什么都不做
func (u *ImageUploader) Remove(ctx context.Context, ref string) error {
	if u == nil || u.store == nil || ref == "" {
		return nil
	}
	return u.store.Delete(ctx, ref)
}
