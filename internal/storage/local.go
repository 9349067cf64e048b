package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore 将文件写入 MEDIA_DIR，通过 /media 静态路由访问
type LocalStore struct {
	root      string
	urlPrefix string
}

func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	dir := filepath.Join(s.root, filepath.Clean("/" + folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	// 文件名只保留扩展名，避免用户输入进入路径
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	return path.Join(s.urlPrefix, filepath.ToSlash(filepath.Clean("/"+folder)), name), nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.urlPrefix+"/") {
		return nil
	}
	rel := filepath.FromSlash(strings.TrimPrefix(ref, s.urlPrefix))
	err := os.Remove(filepath.Join(s.root, filepath.Clean("/"+rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
