package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"tieba/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), strings.NewReader("png-bytes"), "avatars", "../../Me.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/media/avatars/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	onDisk := filepath.Join(root, "avatars", filepath.Base(ref))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// 外部链接与已删除文件都不报错
	assert.NoError(t, store.Delete(context.Background(), "https://example.com/a.png"))
	assert.NoError(t, store.Delete(context.Background(), ref))
}

func TestLocalStoreFolderCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), strings.NewReader("x"), "../../etc", "a.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/media/etc/"))
	_, err = os.Stat(filepath.Join(root, "etc", filepath.Base(ref)))
	assert.NoError(t, err)
}

func TestPublicIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1700000000/avatars/abc.webp": "avatars/abc",
		"https://res.cloudinary.com/demo/image/upload/avatars/abc.jpg":              "avatars/abc",
		"/media/avatars/abc.png":            "",
		"https://example.com/upload/x.png":  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, publicIDFromURL(in), in)
	}
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(&config.Config{StorageDriver: "local", MediaDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(&config.Config{StorageDriver: "s3"})
	assert.Error(t, err)
}
