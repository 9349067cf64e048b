package services

import (
	"context"
	"testing"
	"tieba/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageUploaderChecksContent(t *testing.T) {
	store := newMemStore()
	uploader := NewImageUploader(store)
	ctx := context.Background()

	// 声明为 png 但内容是 HTML
	fake := fileHeader(t, "image", "x.png", "image/png", []byte("<html><script>alert(1)</script></html>"))
	_, err := uploader.Upload(ctx, "posts", fake)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Empty(t, store.saved)

	// 声明类型不对但内容是 png
	disguised := fileHeader(t, "image", "shot.jpg", "application/octet-stream", pngBytes)
	ref, err := uploader.Upload(ctx, "posts", disguised)
	require.NoError(t, err)
	assert.Equal(t, "/media/posts/0-shot.png", ref)
	assert.Equal(t, pngBytes, store.saved[ref])

	photo := fileHeader(t, "image", "photo.jpeg", "image/jpeg", jpegBytes)
	ref, err = uploader.Upload(ctx, "posts", photo)
	require.NoError(t, err)
	assert.Equal(t, "/media/posts/1-photo.jpeg", ref)
}
